package services

import (
	"context"
	"time"

	"disha/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

// profileWriter is the slice of UserService the state machine needs
type profileWriter interface {
	ApplyUpdates(ctx context.Context, userID string, updates bson.M) error
}

// goals that need body metrics before onboarding can finish
var metricGoals = map[string]bool{
	"weight loss":     true,
	"muscle gain":     true,
	"pcos management": true,
}

// OnboardingService runs the onboarding state machine. Every turn it scans
// the raw input for every slot regardless of the current step (greedy
// extraction), fills only still-empty profile fields, then decides the next
// step from what is missing.
type OnboardingService struct {
	users     profileWriter
	extractor SlotExtractor
}

// NewOnboardingService creates the state machine with its extraction strategy
func NewOnboardingService(users profileWriter, extractor SlotExtractor) *OnboardingService {
	return &OnboardingService{
		users:     users,
		extractor: extractor,
	}
}

// ApplyTurn processes one onboarding turn: extracts slots, persists profile
// updates and the step transition, and reports whether the current step's
// requirement was satisfied. The returned user reflects the applied updates.
func (s *OnboardingService) ApplyTurn(ctx context.Context, user *models.User, input string) (bool, *models.User, error) {
	currentStep := user.Onboarding.CurrentStep
	updated := *user
	updates := bson.M{}

	// Greedy extraction: fill whatever the user volunteered, first write wins
	if name := s.extractor.ExtractName(input); name != "" && updated.Name == "" {
		updated.Name = name
		updates["name"] = name
	}
	if gender := s.extractor.ExtractGender(input); gender != "" && updated.Gender == "" {
		updated.Gender = gender
		updates["gender"] = gender
	}
	if age := s.extractor.ExtractAge(input); age != 0 && updated.Age == 0 {
		updated.Age = age
		updates["age"] = age
	}
	weight, height := s.extractor.ExtractWeightHeight(input)
	if weight != 0 && updated.WeightKg == 0 {
		updated.WeightKg = weight
		updates["weightKg"] = weight
	}
	if height != 0 && updated.HeightCm == 0 {
		updated.HeightCm = height
		updates["heightCm"] = height
	}

	// Goals overwrite, unless the extraction degenerated to a sentinel
	// while something meaningful is already stored
	if goals := s.extractor.ExtractGoals(input); len(goals) > 0 {
		switch {
		case goals[0] == GoalGeneralWellness && len(updated.HealthGoals) > 0:
			// nothing concrete found, keep what we have
		case goals[0] == GoalOtherCustom && hasConcreteGoal(updated.HealthGoals):
			// a stray "other" mention must not wipe a concrete goal
		default:
			updated.HealthGoals = goals
			updates["healthGoals"] = goals
		}
	}

	nextStep := s.nextStep(&updated)
	if nextStep == models.StepCompleted {
		now := time.Now().UTC()
		updated.Onboarding.Completed = true
		updated.Onboarding.CompletedAt = &now
		updates["onboarding.completed"] = true
		updates["onboarding.completedAt"] = now
	}

	// Steps only move forward until completion
	if nextStep < currentStep {
		nextStep = currentStep
	}

	success := s.stepSatisfied(currentStep, &updated)

	// Only advance on success; a failed step is retried next turn
	if success {
		updated.Onboarding.CurrentStep = nextStep
		updates["onboarding.currentStep"] = nextStep
	} else {
		updates["onboarding.currentStep"] = currentStep
	}

	if err := s.users.ApplyUpdates(ctx, user.UserID, updates); err != nil {
		return false, nil, err
	}

	return success, &updated, nil
}

// nextStep picks the next onboarding step from what is still missing,
// in strict priority order.
func (s *OnboardingService) nextStep(user *models.User) int {
	switch {
	case user.Name == "":
		return models.StepNameCollected
	case user.Gender == "":
		return models.StepGenderCollected
	case user.Age == 0:
		return models.StepAgeCollected
	case len(user.HealthGoals) == 0,
		len(user.HealthGoals) == 1 && user.HealthGoals[0] == GoalGeneralWellness,
		len(user.HealthGoals) == 1 && user.HealthGoals[0] == GoalOtherCustom:
		// Nothing meaningful collected yet, keep asking for a concrete goal
		return models.StepGoalsCollected
	case s.needsBodyMetrics(user):
		return models.StepDiagnosticCollected
	default:
		return models.StepCompleted
	}
}

// hasConcreteGoal reports whether any stored goal is more specific than the
// default and sentinel tags
func hasConcreteGoal(goals []string) bool {
	for _, g := range goals {
		if g != GoalGeneralWellness && g != GoalOtherCustom {
			return true
		}
	}
	return false
}

func (s *OnboardingService) needsBodyMetrics(user *models.User) bool {
	if user.WeightKg != 0 && user.HeightCm != 0 {
		return false
	}
	for _, g := range user.HealthGoals {
		if metricGoals[g] {
			return true
		}
	}
	return false
}

// stepSatisfied reports whether the step the user was on got what it asked
// for this turn. Steps 4 and 6 always succeed.
func (s *OnboardingService) stepSatisfied(step int, user *models.User) bool {
	switch step {
	case models.StepNotStarted, models.StepNameCollected:
		return user.Name != ""
	case models.StepGenderCollected:
		return user.Gender != ""
	case models.StepAgeCollected:
		return user.Age != 0
	case models.StepDiagnosticCollected:
		return user.WeightKg != 0 && user.HeightCm != 0
	default:
		return true
	}
}
