package model

// JobType 職種
type JobType string

const (
	JobTypeNurse                 JobType = "看護師"
	JobTypePhysicalTherapist     JobType = "理学療法士"
	JobTypeOccupationalTherapist JobType = "作業療法士"
)

// JobTypes 職種一覧（表示・並び順の優先度順）
var JobTypes = []JobType{
	JobTypeNurse,
	JobTypePhysicalTherapist,
	JobTypeOccupationalTherapist,
}

// DefaultJobType 職種未確定の職員に割り当てる職種
const DefaultJobType = JobTypeNurse

// ParseJobType 文字列から職種を取得する
func ParseJobType(s string) (JobType, bool) {
	for _, jt := range JobTypes {
		if string(jt) == s {
			return jt, true
		}
	}
	return "", false
}

// Valid 既知の職種かどうか
func (j JobType) Valid() bool {
	_, ok := ParseJobType(string(j))
	return ok
}

// Priority 並び順の優先度（小さいほど先）。未知の値は DefaultJobType 扱い
func (j JobType) Priority() int {
	for i, jt := range JobTypes {
		if jt == j {
			return i
		}
	}
	return 0
}

// OrDefault 未設定なら DefaultJobType を返す
func (j JobType) OrDefault() JobType {
	if j.Valid() {
		return j
	}
	return DefaultJobType
}
