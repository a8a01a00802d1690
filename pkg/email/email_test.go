package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pgfinder_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmailService_RequiresKey(t *testing.T) {
	_, err := NewEmailService("", "from@example.com", logger.Discard())
	assert.Error(t, err)
}

func TestSendInquiryNotification(t *testing.T) {
	var got EmailData
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"1"}`))
	}))
	defer srv.Close()

	svc, err := NewEmailService("key-123", "PG Finder <noreply@example.com>", logger.Discard(), WithEndpoint(srv.URL))
	require.NoError(t, err)

	err = svc.SendInquiryNotification(context.Background(), "owner@example.com", InquiryNotificationData{
		LandlordName:  "Meera",
		ListingTitle:  "2BHK near <Metro>",
		InquirerName:  "Arjun",
		InquirerEmail: "arjun@example.com",
		InquirerPhone: "9876543210",
		Message:       "Is it available?",
	})

	require.NoError(t, err)
	assert.Equal(t, "Bearer key-123", auth)
	assert.Equal(t, "owner@example.com", got.To)
	assert.Equal(t, "New inquiry for 2BHK near <Metro>", got.Subject)
	assert.Contains(t, got.Html, "Arjun")
	assert.Contains(t, got.Html, "2BHK near &lt;Metro&gt;")
}

func TestSendInquiryNotification_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer srv.Close()

	svc, err := NewEmailService("key", "x", logger.Discard(), WithEndpoint(srv.URL))
	require.NoError(t, err)

	err = svc.SendInquiryNotification(context.Background(), "owner@example.com", InquiryNotificationData{ListingTitle: "Room"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}
