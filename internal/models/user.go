package models

import (
	"fmt"
	"strings"
	"time"
)

// Onboarding step constants. Steps only move forward; step 6 means the
// profile is complete and the user is in free chat.
const (
	StepNotStarted          = 0
	StepNameCollected       = 1
	StepGenderCollected     = 2
	StepAgeCollected        = 3
	StepGoalsCollected      = 4
	StepDiagnosticCollected = 5
	StepCompleted           = 6
)

// OnboardingState tracks where a user is in the guided onboarding flow
type OnboardingState struct {
	Completed   bool       `bson:"completed" json:"completed"`
	CurrentStep int        `bson:"currentStep" json:"current_step"`
	StartedAt   *time.Time `bson:"startedAt,omitempty" json:"started_at,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completed_at,omitempty"`
}

// UserPreferences holds user-specific settings
type UserPreferences struct {
	Language         string `bson:"language" json:"language"`
	NotificationTime string `bson:"notificationTime,omitempty" json:"notification_time,omitempty"`
}

// User represents a coached user and their health profile
type User struct {
	UserID          string          `bson:"userId" json:"user_id"`
	Name            string          `bson:"name,omitempty" json:"name,omitempty"`
	Age             int             `bson:"age,omitempty" json:"age,omitempty"`
	Gender          string          `bson:"gender,omitempty" json:"gender,omitempty"`
	WeightKg        float64         `bson:"weightKg,omitempty" json:"weight_kg,omitempty"`
	HeightCm        float64         `bson:"heightCm,omitempty" json:"height_cm,omitempty"`
	HealthGoals     []string        `bson:"healthGoals,omitempty" json:"health_goals,omitempty"`
	KnownConditions []string        `bson:"knownConditions,omitempty" json:"known_conditions,omitempty"`
	Onboarding      OnboardingState `bson:"onboarding" json:"onboarding"`
	Preferences     UserPreferences `bson:"preferences" json:"preferences"`
	CreatedAt       time.Time       `bson:"createdAt" json:"created_at"`
	UpdatedAt       time.Time       `bson:"updatedAt" json:"updated_at"`
	LastActiveAt    time.Time       `bson:"lastActiveAt" json:"last_active_at"`
}

// ProfileSummary renders the known profile fields for LLM context.
// Returns "" when nothing is known yet.
func (u *User) ProfileSummary() string {
	var parts []string

	if u.Name != "" {
		parts = append(parts, fmt.Sprintf("Name: %s", u.Name))
	}
	if u.Age > 0 {
		parts = append(parts, fmt.Sprintf("Age: %d", u.Age))
	}
	if u.Gender != "" {
		parts = append(parts, fmt.Sprintf("Gender: %s", u.Gender))
	}
	if u.WeightKg > 0 {
		parts = append(parts, fmt.Sprintf("Weight: %gkg", u.WeightKg))
	}
	if u.HeightCm > 0 {
		parts = append(parts, fmt.Sprintf("Height: %gcm", u.HeightCm))
	}
	if len(u.HealthGoals) > 0 {
		parts = append(parts, fmt.Sprintf("Health Goals: %s", strings.Join(u.HealthGoals, ", ")))
	}
	if len(u.KnownConditions) > 0 {
		parts = append(parts, fmt.Sprintf("Known Conditions: %s", strings.Join(u.KnownConditions, ", ")))
	}

	return strings.Join(parts, "\n")
}

// UpdateUserRequest is the request body for PATCH /api/users/:id
type UpdateUserRequest struct {
	Name            *string   `json:"name,omitempty"`
	Age             *int      `json:"age,omitempty"`
	Gender          *string   `json:"gender,omitempty"`
	WeightKg        *float64  `json:"weight_kg,omitempty"`
	HeightCm        *float64  `json:"height_cm,omitempty"`
	HealthGoals     *[]string `json:"health_goals,omitempty"`
	KnownConditions *[]string `json:"known_conditions,omitempty"`
}

// UserResponse is the API response for user data
type UserResponse struct {
	UserID          string          `json:"user_id"`
	Name            string          `json:"name,omitempty"`
	Age             int             `json:"age,omitempty"`
	Gender          string          `json:"gender,omitempty"`
	WeightKg        float64         `json:"weight_kg,omitempty"`
	HeightCm        float64         `json:"height_cm,omitempty"`
	HealthGoals     []string        `json:"health_goals,omitempty"`
	KnownConditions []string        `json:"known_conditions,omitempty"`
	Onboarding      OnboardingState `json:"onboarding"`
	CreatedAt       time.Time       `json:"created_at"`
	LastActiveAt    time.Time       `json:"last_active_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		UserID:          u.UserID,
		Name:            u.Name,
		Age:             u.Age,
		Gender:          u.Gender,
		WeightKg:        u.WeightKg,
		HeightCm:        u.HeightCm,
		HealthGoals:     u.HealthGoals,
		KnownConditions: u.KnownConditions,
		Onboarding:      u.Onboarding,
		CreatedAt:       u.CreatedAt,
		LastActiveAt:    u.LastActiveAt,
	}
}
