package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearch(t *testing.T) {
	ds := mustParse(t, `조사년도,학번,취업구분1,기업지역,기업구분,회사구분,기업명
2020,20160001,취업,서울,사기업,대기업,SamSung Electronics
2020,20160002,취업,경기,사기업,중소기업,스타트업코리아
2021,20170001,취업,부산,공공기관,공기업,한국자산관리공사
`)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "empty query matches all", query: "", want: 3},
		{name: "whitespace query matches all", query: "   ", want: 3},
		{name: "region substring", query: "서울", want: 1},
		{name: "case-insensitive latin", query: "samsung", want: 1},
		{name: "extra column value", query: "스타트업", want: 1},
		{name: "year as text", query: "2021", want: 1},
		{name: "student id prefix", query: "2016", want: 2},
		{name: "no match", query: "제주", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Search(ds.Employed, tt.query)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestSearch_AfterFilter(t *testing.T) {
	ds := mustParse(t, `조사년도,학번,취업구분1,기업지역
2020,20160001,취업,서울
2021,20170001,취업,서울
2021,20170002,취업,경기
`)

	sel := Selection{Years: []int{2021}}
	got := Search(sel.Apply(ds.Employed), "서울")

	assert.Len(t, got, 1)
	assert.Equal(t, "20170001", got[0].StudentID)
}
