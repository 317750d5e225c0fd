package wilaya

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_CodesAreTwoDigitsAndUnique(t *testing.T) {
	all := All()
	require.Len(t, all, Count)

	seen := make(map[string]bool, Count)
	for i, w := range all {
		assert.Len(t, w.Code, 2)
		assert.Equal(t, fmt.Sprintf("%02d", i+1), w.Code, "table must be ordered by code")
		assert.False(t, seen[w.Code], "duplicate code %s", w.Code)
		seen[w.Code] = true
		assert.NotEmpty(t, w.Name)
		assert.NotEmpty(t, w.NameAr)
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1", "01", true},
		{"01", "01", true},
		{" 16 ", "16", true},
		{"58", "58", true},
		{"wilaya 7", "07", true},
		{"0", "", false},
		{"00", "", false},
		{"59", "", false},
		{"123", "", false},
		{"", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeCode(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestByCode_AllUnpaddedCodes(t *testing.T) {
	for i := 1; i <= Count; i++ {
		w, ok := ByCode(fmt.Sprintf("%d", i))
		require.True(t, ok, "code %d", i)
		assert.Equal(t, fmt.Sprintf("%02d", i), w.Code)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "bejaia", Normalize("Béjaïa"))
	assert.Equal(t, "msila", Normalize("M'Sila"))
	assert.Equal(t, "bordj bou arreridj", Normalize("Bordj-Bou-Arréridj"))
	assert.Equal(t, "oran", Normalize("Wilaya d'Oran"))
	assert.Equal(t, "blida", Normalize("Wilaya de Blida"))
	assert.Equal(t, "djelfa", Normalize("Wilaya Djelfa"))
	assert.Equal(t, "algiers", Normalize("Algiers Province"))
	assert.Equal(t, "", Normalize("   "))
}

func TestMatchName(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"Alger", "16"},
		{"Algiers", "16"},
		{"Algiers Province", "16"},
		{"Wilaya d'Alger", "16"},
		{"Sidi M'Hamed, Alger", "16"},
		{"Bejaia", "06"},
		{"Béjaïa", "06"},
		{"Tizi-Ouzou", "15"},
		{"Sidi Bel Abbes", "22"},
		{"El M'Ghair", "57"},
		{"Ain Temouchent", "46"},
		{"وهران", "31"},
		{"ولاية سطيف", "19"},
		{"Constant", "25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := MatchName(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestMatchName_Misses(t *testing.T) {
	for _, name := range []string{"", "Algérie", "Algeria", "Paris", "el"} {
		_, ok := MatchName(name)
		assert.False(t, ok, name)
	}
}
