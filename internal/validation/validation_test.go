package validation

import (
	"testing"

	inverrors "github.com/gamevault/inventory/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productInput struct {
	Name     string `json:"name"     validate:"required,notblank,max=100"`
	Category string `json:"category" validate:"required,category"`
	Price    int64  `json:"price"    validate:"gt=0"`
	Quantity int32  `json:"quantity" validate:"gte=0"`
}

func TestStruct(t *testing.T) {
	long := make([]rune, 101)
	for i := range long {
		long[i] = 'a'
	}

	testCases := []struct {
		name      string
		input     productInput
		wantRules map[string]string
	}{
		{
			name:  "valid product",
			input: productInput{Name: "PlayStation 5", Category: CategoryConsole, Price: 3200000, Quantity: 15},
		},
		{
			name:  "zero quantity is allowed",
			input: productInput{Name: "FIFA 24", Category: CategoryGame, Price: 150000},
		},
		{
			name:      "blank name",
			input:     productInput{Name: "   ", Category: CategoryGame, Price: 1, Quantity: 1},
			wantRules: map[string]string{"name": "notblank"},
		},
		{
			name:      "name too long",
			input:     productInput{Name: string(long), Category: CategoryGame, Price: 1, Quantity: 1},
			wantRules: map[string]string{"name": "max"},
		},
		{
			name:      "unknown category",
			input:     productInput{Name: "Controller", Category: "accessory", Price: 1, Quantity: 1},
			wantRules: map[string]string{"category": "category"},
		},
		{
			name:  "every violation is reported",
			input: productInput{Category: "", Price: 0, Quantity: -1},
			wantRules: map[string]string{
				"name":     "required",
				"category": "required",
				"price":    "gt",
				"quantity": "gte",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			err := Struct(tc.input)

			// then
			if len(tc.wantRules) == 0 {
				require.NoError(t, err)
				return
			}
			vErr, ok := inverrors.AsValidationError(err)
			require.True(t, ok, "expected a ValidationError, got %v", err)
			got := make(map[string]string, len(vErr.Violations))
			for _, v := range vErr.Violations {
				got[v.Field] = v.Rule
				assert.NotEmpty(t, v.Message)
			}
			assert.Equal(t, tc.wantRules, got)
		})
	}
}

func TestIsCategory(t *testing.T) {
	assert.True(t, IsCategory("game"))
	assert.True(t, IsCategory("console"))
	assert.False(t, IsCategory("Game"))
	assert.False(t, IsCategory(""))
}
