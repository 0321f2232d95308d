package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
)

func fixture() *Index {
	schedule := model.UserScheduleMap{
		"さとう　はなこ": {
			{Date: 3, StartTime: "13:00", EndTime: "14:00", Staff: "いとう　りえ", OfficeName: "西東京事業所"},
			{Date: 3, StartTime: "09:30", EndTime: "10:30", Staff: "あべ　けん", OfficeName: "西東京事業所"},
			{Date: 3, StartTime: "09:30", EndTime: "10:00", Staff: "うえの　まき", OfficeName: "西東京事業所"},
			{Date: 4, StartTime: "08:00", EndTime: "09:00", Staff: "あべ　けん", OfficeName: "西東京事業所"},
		},
		"あおき　たろう": {
			{Date: 1, StartTime: "10:00", EndTime: "11:00", Staff: "えんどう　さき", OfficeName: "横浜戸塚事業所"},
		},
		"かとう　じろう": {
			{Date: 2, StartTime: "10:00", EndTime: "11:00", Staff: "あべ　けん"},
		},
	}
	jobTypes := model.StaffJobTypeMap{
		"いとう　りえ":  model.JobTypeNurse,
		"あべ　けん":   model.JobTypeOccupationalTherapist,
		"えんどう　さき": model.JobTypePhysicalTherapist,
	}
	return NewIndex(schedule, jobTypes)
}

func TestIndex_Users(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"あおき　たろう", "かとう　じろう", "さとう　はなこ"}, fixture().Users())
}

func TestIndex_AllStaffOrderedByJobTypeThenName(t *testing.T) {
	t.Parallel()

	x := fixture()
	want := []string{
		"いとう　りえ",  // 看護師
		"うえの　まき",  // 未確定 -> 看護師
		"えんどう　さき", // 理学療法士
		"あべ　けん",   // 作業療法士
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, want, x.AllStaff())
	}
	assert.Equal(t, model.JobTypeNurse, x.JobTypeOf("うえの　まき"))

	roster := x.StaffByJobType()
	assert.Equal(t, []string{"いとう　りえ", "うえの　まき"}, roster[model.JobTypeNurse])
}

func TestIndex_OfficesInUse(t *testing.T) {
	t.Parallel()

	offices := fixture().OfficesInUse()
	require.Len(t, offices, 2)
	assert.ElementsMatch(t, []string{"西東京事業所", "横浜戸塚事業所"}, offices)
}

func TestIndex_UsersByOfficeAndStaff(t *testing.T) {
	t.Parallel()

	x := fixture()
	assert.Equal(t, []string{"さとう　はなこ"}, x.UsersByOffice("西東京事業所"))
	assert.Equal(t, []string{"かとう　じろう", "さとう　はなこ"}, x.UsersByStaff("あべ　けん"))
	assert.Empty(t, x.UsersByStaff("だれか"))
}

func TestIndex_FilteredUsers(t *testing.T) {
	t.Parallel()

	x := fixture()
	assert.Equal(t, x.Users(), x.FilteredUsers(Filter{}))
	assert.Equal(t, []string{"さとう　はなこ"}, x.FilteredUsers(Filter{Office: "西東京事業所", Staff: "あべ　けん"}))
	assert.Equal(t, []string{"かとう　じろう", "さとう　はなこ"}, x.FilteredUsers(Filter{Staff: "あべ　けん"}))
	assert.Equal(t, []string{"かとう　じろう"}, x.FilteredUsers(Filter{Staff: "あべ　けん", Text: "じろう"}))
	assert.Empty(t, x.FilteredUsers(Filter{Office: "横浜戸塚事業所", Staff: "あべ　けん"}))
}

func TestIndex_FilteredUsersCaseSensitive(t *testing.T) {
	t.Parallel()

	x := NewIndex(model.UserScheduleMap{
		"Smith": {{Date: 1, StartTime: "09:00", EndTime: "10:00", Staff: "a"}},
	}, nil)
	assert.Equal(t, []string{"Smith"}, x.FilteredUsers(Filter{Text: "Sm"}))
	assert.Empty(t, x.FilteredUsers(Filter{Text: "sm"}))
}

func TestIndex_EntriesForDay(t *testing.T) {
	t.Parallel()

	x := fixture()
	entries := x.EntriesForDay("さとう　はなこ", 3)
	require.Len(t, entries, 3)

	assert.Equal(t, "あべ　けん", entries[0].Staff)
	assert.Equal(t, "うえの　まき", entries[1].Staff)
	assert.Equal(t, "いとう　りえ", entries[2].Staff)
	assert.Equal(t, model.JobTypeOccupationalTherapist, entries[0].JobType)
	assert.Equal(t, model.JobTypeNurse, entries[1].JobType)
	for _, e := range entries {
		assert.Equal(t, 3, e.Date)
	}

	assert.Empty(t, x.EntriesForDay("さとう　はなこ", 5))
	assert.Empty(t, x.EntriesForDay("いない人", 3))
}

func TestIndex_OfficeOf(t *testing.T) {
	t.Parallel()

	x := fixture()
	assert.Equal(t, "横浜戸塚事業所", x.OfficeOf("あおき　たろう"))
	assert.Equal(t, "", x.OfficeOf("かとう　じろう"))
}
