package core

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

type row struct {
	name string
	age  int
}

var rowSorters = map[string]Less[row]{
	"nome":  func(a, b row) bool { return a.name < b.name },
	"idade": func(a, b row) bool { return a.age < b.age },
}

func TestParseOrdering(t *testing.T) {
	tests := []struct {
		in   string
		want []Ordering
	}{
		{in: "", want: nil},
		{in: "nome", want: []Ordering{{Field: "nome", Ascending: true}}},
		{in: "-idade, nome", want: []Ordering{{Field: "idade"}, {Field: "nome", Ascending: true}}},
		{in: "-,,", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOrdering(tt.in))
		})
	}
}

func TestOrder(t *testing.T) {
	ana := row{"Ana", 30}
	bia := row{"Bia", 25}
	caio := row{"Caio", 30}
	items := []row{caio, ana, bia}

	tests := []struct {
		name     string
		ordering string
		want     []row
	}{
		{name: "no ordering", ordering: "", want: items},
		{name: "unknown field", ordering: "peso", want: items},
		{name: "nome", ordering: "nome", want: []row{ana, bia, caio}},
		{name: "-nome", ordering: "-nome", want: []row{caio, bia, ana}},
		{name: "-idade,nome", ordering: "-idade,nome", want: []row{ana, caio, bia}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Order(items, ParseOrdering(tt.ordering), rowSorters))
		})
	}
	assert.Equal(t, []row{caio, ana, bia}, items, "input must not be reordered")
}

func TestFilter(t *testing.T) {
	items := []row{{"Ana Souza", 30}, {"Bia", 25}, {"Mariana", 40}}
	fields := func(r row) []string { return []string{r.name, strconv.Itoa(r.age)} }

	assert.Len(t, Filter(items, "", fields), 3)
	assert.Len(t, Filter(items, "  ANA ", fields), 2)
	assert.Len(t, Filter(items, "25", fields), 1)
	assert.Empty(t, Filter(items, "zé", fields))
}

func TestPaginate(t *testing.T) {
	items := make([]int, 11)
	for i := range items {
		items[i] = i + 1
	}

	tests := []struct {
		name       string
		number     int
		perPage    int
		wantItems  []int
		wantNumber int
		wantPages  int
	}{
		{name: "page 1", number: 1, perPage: 10, wantItems: items[:10], wantNumber: 1, wantPages: 2},
		{name: "page 2", number: 2, perPage: 10, wantItems: []int{11}, wantNumber: 2, wantPages: 2},
		{name: "page out of range", number: 9, perPage: 10, wantItems: []int{11}, wantNumber: 2, wantPages: 2},
		{name: "page 0", number: 0, perPage: 10, wantItems: items[:10], wantNumber: 1, wantPages: 2},
		{name: "default per page", number: 1, perPage: 0, wantItems: items[:10], wantNumber: 1, wantPages: 2},
		{name: "5 per page", number: 3, perPage: 5, wantItems: []int{11}, wantNumber: 3, wantPages: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Paginate(items, tt.number, tt.perPage)
			assert.Equal(t, tt.wantItems, page.Items)
			assert.Equal(t, tt.wantNumber, page.Number)
			assert.Equal(t, tt.wantPages, page.TotalPages)
			assert.LessOrEqual(t, len(page.Items), page.PerPage)
			assert.Equal(t, 11, page.Total)
		})
	}

	empty := Paginate([]int{}, 1, 10)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 1, empty.Number)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Olá", Truncate("Olá", 10))
	assert.Equal(t, "Treino…", Truncate("Treino de força", 7))
}
