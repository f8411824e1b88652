package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatforms_ValueScan(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	in := Platforms{{
		Name:         "Amazon",
		URL:          "https://amazon.example/p/1",
		CurrentPrice: 799,
		History:      []PricePoint{{Price: 999, Date: day}},
	}}

	v, err := in.Value()
	require.NoError(t, err)

	var out Platforms
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)

	var fromString Platforms
	require.NoError(t, fromString.Scan(`[{"name":"Myntra","currentPrice":10,"history":[]}]`))
	assert.Equal(t, "Myntra", fromString[0].Name)

	var empty Platforms
	require.NoError(t, empty.Scan(nil))
	assert.Empty(t, empty)

	assert.Error(t, empty.Scan(42))
}

func TestPlatforms_NilValueIsEmptyArray(t *testing.T) {
	t.Parallel()

	v, err := Platforms(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}

func TestPlatforms_Find(t *testing.T) {
	t.Parallel()

	p := Platforms{{Name: "Amazon"}, {Name: "Flipkart"}}
	assert.Equal(t, 1, p.Find("FLIPKART"))
	assert.Equal(t, 0, p.Find("amazon"))
	assert.Equal(t, -1, p.Find("myntra"))
}

func TestPlatforms_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      Platforms
		wantErr bool
	}{
		{"ok", Platforms{{Name: "Amazon", CurrentPrice: 10}, {Name: "Flipkart", CurrentPrice: 12}}, false},
		{"empty list", Platforms{}, false},
		{"duplicate case-insensitive", Platforms{{Name: "Amazon"}, {Name: "amazon "}}, true},
		{"blank name", Platforms{{Name: "  "}}, true},
		{"negative current price", Platforms{{Name: "Amazon", CurrentPrice: -1}}, true},
		{"negative history price", Platforms{{Name: "Amazon", History: []PricePoint{{Price: -5}}}}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.in.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpsertResult_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "created", UpsertCreated.String())
	assert.Equal(t, "updated", UpsertUpdated.String())
	assert.Equal(t, "unchanged", UpsertUnchanged.String())
}
