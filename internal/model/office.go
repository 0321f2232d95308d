package model

// Office 事業所
type Office string

const (
	OfficeYokohamaTotsuka  Office = "横浜戸塚事業所"
	OfficeNishiTokyo       Office = "西東京事業所"
	OfficeKodairaSatellite Office = "小平サテライト"
)

// Offices 事業所一覧
var Offices = []Office{
	OfficeYokohamaTotsuka,
	OfficeNishiTokyo,
	OfficeKodairaSatellite,
}

// DefaultOffice 初期選択の事業所
const DefaultOffice = OfficeYokohamaTotsuka

var officePhones = map[Office]string{
	OfficeYokohamaTotsuka:  "在宅看護センターことぶき 045-875-6299",
	OfficeNishiTokyo:       "訪問看護ことぶき 042-452-9281",
	OfficeKodairaSatellite: "訪問看護ことぶき 小平サテライト 042-312-1960",
}

// ParseOffice 文字列から事業所を取得する
func ParseOffice(s string) (Office, bool) {
	for _, o := range Offices {
		if string(o) == s {
			return o, true
		}
	}
	return "", false
}

// Phone 帳票フッターに印字する連絡先
func (o Office) Phone() string {
	return officePhones[o]
}
