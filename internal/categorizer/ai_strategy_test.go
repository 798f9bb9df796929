package categorizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/stmt-extract/internal/aiclient"
	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
	"fjacquet/stmt-extract/internal/parsererror"
)

var testCategories = []string{models.CategoryGroceries, models.CategoryRestaurants, models.CategoryUncategorized}

func TestAIStrategy_Categorize(t *testing.T) {
	client := &aiclient.MockClient{Response: "CATEGORY: groceries\nCONFIDENCE: high\nREASON: supermarket"}
	s := NewAIStrategy(client, testCategories, time.Second, logging.NewMockLogger())

	category, found, err := s.Categorize(context.Background(), "SPROUTS FARMERS MKT")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.CategoryGroceries, category)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "Merchant/Payee: SPROUTS FARMERS MKT")
	assert.Contains(t, calls[0].Prompt, "Groceries, Restaurants, Uncategorized")
	assert.False(t, calls[0].HasImage())
}

func TestAIStrategy_NotFound(t *testing.T) {
	tests := []struct {
		name     string
		client   aiclient.Client
		payee    string
		wantErr  bool
		errCheck func(t *testing.T, err error)
	}{
		{name: "nil client", client: nil, payee: "SPROUTS"},
		{name: "blank payee", client: &aiclient.MockClient{Response: "CATEGORY: Groceries"}, payee: "  "},
		{name: "uncategorized answer", client: &aiclient.MockClient{Response: "CATEGORY: Uncategorized"}, payee: "SPROUTS"},
		{
			name:    "unknown category",
			client:  &aiclient.MockClient{Response: "CATEGORY: Pets"},
			payee:   "PETCO",
			wantErr: true,
			errCheck: func(t *testing.T, err error) {
				var aiErr *parsererror.AIResponseError
				assert.ErrorAs(t, err, &aiErr)
			},
		},
		{
			name:    "client error",
			client:  &aiclient.MockClient{Err: errors.New("quota exceeded")},
			payee:   "SPROUTS",
			wantErr: true,
			errCheck: func(t *testing.T, err error) {
				assert.EqualError(t, err, "quota exceeded")
			},
		},
		{
			name:    "timeout",
			client:  &aiclient.MockClient{Block: true},
			payee:   "SPROUTS",
			wantErr: true,
			errCheck: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, context.DeadlineExceeded)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAIStrategy(tt.client, testCategories, 20*time.Millisecond, nil)
			category, found, err := s.Categorize(context.Background(), tt.payee)
			assert.False(t, found)
			assert.Empty(t, category)
			if tt.wantErr {
				require.Error(t, err)
				tt.errCheck(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAIStrategy_NoCategories(t *testing.T) {
	client := &aiclient.MockClient{Response: "CATEGORY: Groceries"}
	s := NewAIStrategy(client, nil, 0, nil)

	_, found, err := s.Categorize(context.Background(), "SPROUTS")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, client.Calls())
	assert.Equal(t, DefaultAITimeout, s.timeout)
	assert.Equal(t, "AI", s.Name())
}
