package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStartCall_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer vapi-key" {
			t.Errorf("expected bearer key, got %q", r.Header.Get("Authorization"))
		}

		var payload struct {
			AssistantID   string `json:"assistantId"`
			PhoneNumberID string `json:"phoneNumberId"`
			Customer      struct {
				Number string `json:"number"`
			} `json:"customer"`
			AssistantOverrides struct {
				VariableValues map[string]string `json:"variableValues"`
			} `json:"assistantOverrides"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if payload.AssistantID != "asst-1" {
			t.Errorf("expected assistant asst-1, got %q", payload.AssistantID)
		}
		if payload.PhoneNumberID != "pn-1" {
			t.Errorf("expected phone number id pn-1, got %q", payload.PhoneNumberID)
		}
		if payload.Customer.Number != "+15550123" {
			t.Errorf("unexpected customer number %q", payload.Customer.Number)
		}
		if payload.AssistantOverrides.VariableValues["patientName"] != "Ada" {
			t.Errorf("unexpected patient name %q", payload.AssistantOverrides.VariableValues["patientName"])
		}
		if payload.AssistantOverrides.VariableValues["roomNumber"] != "204B" {
			t.Errorf("unexpected room %q", payload.AssistantOverrides.VariableValues["roomNumber"])
		}

		json.NewEncoder(w).Encode(map[string]string{"id": "call-123"})
	}))
	defer server.Close()

	c := NewClient("vapi-key", "pn-1", nil)
	c.SetTestTransport(server.URL)

	id, err := c.StartCall(context.Background(), CallRequest{
		PhoneNumber: "+15550123",
		PatientName: "Ada",
		RoomNumber:  "204B",
		AssistantID: "asst-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "call-123" {
		t.Errorf("expected call-123, got %q", id)
	}
}

func TestStartCall_DefaultsOverrides(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			AssistantOverrides struct {
				VariableValues map[string]string `json:"variableValues"`
			} `json:"assistantOverrides"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		vv := payload.AssistantOverrides.VariableValues
		if vv["patientName"] != "Patient" || vv["roomNumber"] != "Unknown" {
			t.Errorf("expected defaults, got %v", vv)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "call-1"})
	}))
	defer server.Close()

	c := NewClient("k", "pn", nil)
	c.SetTestTransport(server.URL)

	if _, err := c.StartCall(context.Background(), CallRequest{PhoneNumber: "+1555", AssistantID: "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStartCall_Validation(t *testing.T) {
	c := NewClient("k", "pn", nil)

	if _, err := c.StartCall(context.Background(), CallRequest{AssistantID: "a"}); err == nil {
		t.Error("expected error for missing phone number")
	}
	if _, err := c.StartCall(context.Background(), CallRequest{PhoneNumber: "+1555"}); err == nil {
		t.Error("expected error for missing assistant id")
	}
}

func TestStartCall_PlatformError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "invalid phone number"})
	}))
	defer server.Close()

	c := NewClient("k", "pn", nil)
	c.SetTestTransport(server.URL)

	_, err := c.StartCall(context.Background(), CallRequest{PhoneNumber: "bogus", AssistantID: "a"})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "start call: invalid phone number" {
		t.Errorf("unexpected error %q", got)
	}
}
