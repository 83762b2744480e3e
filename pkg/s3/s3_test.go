package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://receipts.s3.eu-west-1.amazonaws.com/tickets/2025/03/T1/1_a.png", "tickets/2025/03/T1/1_a.png"},
		{"https://receipts.s3.eu-west-1.amazonaws.com/tickets/2025/03/T1/1_Ticket%20Comida.jpg", "tickets/2025/03/T1/1_Ticket Comida.jpg"},
		{"http://localhost:9000/receipts/tickets/2025/03/T1/1_a.png", "tickets/2025/03/T1/1_a.png"},
		{"tickets/2025/03/T1/1_a.png", "tickets/2025/03/T1/1_a.png"},
	}

	for _, tt := range tests {
		got, err := objectKey(tt.url, "receipts")
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}

	_, err := objectKey("https://receipts.s3.amazonaws.com/", "receipts")
	assert.Error(t, err)
}

func TestNew_RequiresBucket(t *testing.T) {
	t.Setenv("AWS_BUCKET_NAME", "")
	_, err := New()
	assert.Error(t, err)
}
