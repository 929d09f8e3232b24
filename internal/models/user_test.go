package models

import (
	"strings"
	"testing"
)

func TestProfileSummary(t *testing.T) {
	tests := []struct {
		name     string
		user     User
		expected string
	}{
		{
			name:     "Empty profile",
			user:     User{UserID: "u1"},
			expected: "",
		},
		{
			name:     "Name only",
			user:     User{Name: "Priya"},
			expected: "Name: Priya",
		},
		{
			name: "Full profile",
			user: User{
				Name:        "Rohan",
				Age:         30,
				Gender:      "male",
				WeightKg:    72.5,
				HeightCm:    175,
				HealthGoals: []string{"weight loss", "fitness"},
			},
			expected: "Name: Rohan\nAge: 30\nGender: male\nWeight: 72.5kg\nHeight: 175cm\nHealth Goals: weight loss, fitness",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.ProfileSummary(); got != tt.expected {
				t.Errorf("ProfileSummary() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestProfileSummaryKnownConditions(t *testing.T) {
	user := User{Name: "Priya", KnownConditions: []string{"PCOS"}}
	got := user.ProfileSummary()
	if !strings.Contains(got, "Known Conditions: PCOS") {
		t.Errorf("Expected known conditions in summary, got %q", got)
	}
}

func TestToResponseCopiesProfile(t *testing.T) {
	user := User{
		UserID:      "u1",
		Name:        "Priya",
		Age:         28,
		HealthGoals: []string{"fitness"},
	}
	user.Onboarding.Completed = true
	user.Onboarding.CurrentStep = StepCompleted

	resp := user.ToResponse()
	if resp.UserID != "u1" || resp.Name != "Priya" || resp.Age != 28 {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if !resp.Onboarding.Completed || resp.Onboarding.CurrentStep != StepCompleted {
		t.Errorf("Expected onboarding state copied, got %+v", resp.Onboarding)
	}
}
