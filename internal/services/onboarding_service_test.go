package services

import (
	"context"
	"testing"

	"disha/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

// stubProfileWriter records applied updates instead of hitting MongoDB
type stubProfileWriter struct {
	updates bson.M
	err     error
}

func (s *stubProfileWriter) ApplyUpdates(ctx context.Context, userID string, updates bson.M) error {
	s.updates = updates
	return s.err
}

func newTestOnboarding() (*OnboardingService, *stubProfileWriter) {
	writer := &stubProfileWriter{}
	return NewOnboardingService(writer, NewRegexSlotExtractor()), writer
}

func TestApplyTurnAdvancesStepByStep(t *testing.T) {
	svc, _ := newTestOnboarding()
	ctx := context.Background()

	user := &models.User{UserID: "u1"}

	success, updated, err := svc.ApplyTurn(ctx, user, "my name is Priya")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !success {
		t.Error("Expected name turn to succeed")
	}
	if updated.Name != "Priya" {
		t.Errorf("Expected name Priya, got %q", updated.Name)
	}
	if updated.Onboarding.CurrentStep != models.StepGenderCollected {
		t.Errorf("Expected step %d, got %d", models.StepGenderCollected, updated.Onboarding.CurrentStep)
	}

	success, updated, err = svc.ApplyTurn(ctx, updated, "female")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !success || updated.Gender != "female" {
		t.Errorf("Expected gender turn to succeed with female, got success=%v gender=%q", success, updated.Gender)
	}
	if updated.Onboarding.CurrentStep != models.StepAgeCollected {
		t.Errorf("Expected step %d, got %d", models.StepAgeCollected, updated.Onboarding.CurrentStep)
	}
}

func TestApplyTurnGreedyExtractionSkipsAhead(t *testing.T) {
	svc, _ := newTestOnboarding()

	user := &models.User{UserID: "u1"}

	success, updated, err := svc.ApplyTurn(context.Background(), user, "I am Rohan, male, 30 years old")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !success {
		t.Error("Expected turn to succeed")
	}
	if updated.Name != "Rohan" || updated.Gender != "male" || updated.Age != 30 {
		t.Errorf("Expected all slots filled, got name=%q gender=%q age=%d", updated.Name, updated.Gender, updated.Age)
	}
	// Name, gender and age are all present, so the machine jumps straight to goals
	if updated.Onboarding.CurrentStep != models.StepGoalsCollected {
		t.Errorf("Expected step %d, got %d", models.StepGoalsCollected, updated.Onboarding.CurrentStep)
	}
}

func TestApplyTurnFailedStepRetries(t *testing.T) {
	svc, writer := newTestOnboarding()

	user := &models.User{UserID: "u1"}
	user.Onboarding.CurrentStep = models.StepAgeCollected
	user.Name = "Priya"
	user.Gender = "female"

	success, updated, err := svc.ApplyTurn(context.Background(), user, "why do you need that?")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if success {
		t.Error("Expected turn to fail when no age was given")
	}
	if updated.Onboarding.CurrentStep != models.StepAgeCollected {
		t.Errorf("Expected step to stay at %d, got %d", models.StepAgeCollected, updated.Onboarding.CurrentStep)
	}
	if got := writer.updates["onboarding.currentStep"]; got != models.StepAgeCollected {
		t.Errorf("Expected persisted step %d, got %v", models.StepAgeCollected, got)
	}
}

func TestApplyTurnFirstWriteWins(t *testing.T) {
	svc, writer := newTestOnboarding()

	user := &models.User{UserID: "u1", Name: "Priya"}
	user.Onboarding.CurrentStep = models.StepGenderCollected

	_, updated, err := svc.ApplyTurn(context.Background(), user, "my name is Anjali, I am female")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if updated.Name != "Priya" {
		t.Errorf("Expected stored name to survive, got %q", updated.Name)
	}
	if _, ok := writer.updates["name"]; ok {
		t.Error("Expected no name update to be persisted")
	}
}

func TestApplyTurnMetricGoalRequiresBodyMetrics(t *testing.T) {
	svc, _ := newTestOnboarding()

	user := &models.User{UserID: "u1", Name: "Priya", Gender: "female", Age: 28}
	user.Onboarding.CurrentStep = models.StepGoalsCollected

	success, updated, err := svc.ApplyTurn(context.Background(), user, "I want to lose weight")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !success {
		t.Error("Expected goals turn to succeed")
	}
	if updated.Onboarding.CurrentStep != models.StepDiagnosticCollected {
		t.Errorf("Expected step %d (needs weight/height), got %d", models.StepDiagnosticCollected, updated.Onboarding.CurrentStep)
	}
	if updated.Onboarding.Completed {
		t.Error("Expected onboarding to remain incomplete")
	}
}

func TestApplyTurnNonMetricGoalCompletes(t *testing.T) {
	svc, writer := newTestOnboarding()

	user := &models.User{UserID: "u1", Name: "Priya", Gender: "female", Age: 28}
	user.Onboarding.CurrentStep = models.StepGoalsCollected

	success, updated, err := svc.ApplyTurn(context.Background(), user, "better sleep")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !success {
		t.Error("Expected goals turn to succeed")
	}
	if updated.Onboarding.CurrentStep != models.StepCompleted {
		t.Errorf("Expected step %d, got %d", models.StepCompleted, updated.Onboarding.CurrentStep)
	}
	if !updated.Onboarding.Completed || updated.Onboarding.CompletedAt == nil {
		t.Error("Expected onboarding marked completed with a timestamp")
	}
	if got := writer.updates["onboarding.completed"]; got != true {
		t.Errorf("Expected completed flag persisted, got %v", got)
	}
}

func TestApplyTurnBodyMetricsFinishOnboarding(t *testing.T) {
	svc, _ := newTestOnboarding()

	user := &models.User{
		UserID:      "u1",
		Name:        "Priya",
		Gender:      "female",
		Age:         28,
		HealthGoals: []string{"weight loss"},
	}
	user.Onboarding.CurrentStep = models.StepDiagnosticCollected

	success, updated, err := svc.ApplyTurn(context.Background(), user, "70 kg and 165 cm")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !success {
		t.Error("Expected metrics turn to succeed")
	}
	if updated.WeightKg != 70 || updated.HeightCm != 165 {
		t.Errorf("Expected metrics (70, 165), got (%v, %v)", updated.WeightKg, updated.HeightCm)
	}
	if updated.Onboarding.CurrentStep != models.StepCompleted {
		t.Errorf("Expected step %d, got %d", models.StepCompleted, updated.Onboarding.CurrentStep)
	}
}

func TestApplyTurnStepNeverDecreases(t *testing.T) {
	svc, writer := newTestOnboarding()

	user := &models.User{
		UserID:      "u1",
		Name:        "Priya",
		Gender:      "female",
		Age:         28,
		HealthGoals: []string{"weight loss"},
	}
	user.Onboarding.CurrentStep = models.StepDiagnosticCollected

	// "other" appears incidentally; it must not wipe the stored goal and
	// drag the flow back to the goals step
	success, updated, err := svc.ApplyTurn(context.Background(), user, "70 kg and 165 cm, other than that I'm fine")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !success {
		t.Error("Expected metrics turn to succeed")
	}
	if updated.Onboarding.CurrentStep < models.StepDiagnosticCollected {
		t.Errorf("Step decreased: was %d, now %d", models.StepDiagnosticCollected, updated.Onboarding.CurrentStep)
	}
	if len(updated.HealthGoals) != 1 || updated.HealthGoals[0] != "weight loss" {
		t.Errorf("Expected stored goal to survive, got %v", updated.HealthGoals)
	}
	if updated.Onboarding.CurrentStep != models.StepCompleted || !updated.Onboarding.Completed {
		t.Errorf("Expected onboarding to complete, got step %d completed=%v",
			updated.Onboarding.CurrentStep, updated.Onboarding.Completed)
	}
	if _, ok := writer.updates["healthGoals"]; ok {
		t.Error("Expected no goals update to be persisted")
	}
}

func TestApplyTurnOtherReplacesDefaultGoal(t *testing.T) {
	svc, _ := newTestOnboarding()

	user := &models.User{
		UserID:      "u1",
		Name:        "Priya",
		Gender:      "female",
		Age:         28,
		HealthGoals: []string{GoalGeneralWellness},
	}
	user.Onboarding.CurrentStep = models.StepGoalsCollected

	_, updated, err := svc.ApplyTurn(context.Background(), user, "other")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(updated.HealthGoals) != 1 || updated.HealthGoals[0] != GoalOtherCustom {
		t.Errorf("Expected %q goal, got %v", GoalOtherCustom, updated.HealthGoals)
	}
	// Still no concrete goal, so the flow keeps asking
	if updated.Onboarding.CurrentStep != models.StepGoalsCollected {
		t.Errorf("Expected step to stay at %d, got %d", models.StepGoalsCollected, updated.Onboarding.CurrentStep)
	}
}

func TestApplyTurnGoalsDoNotDegradeToDefault(t *testing.T) {
	svc, writer := newTestOnboarding()

	user := &models.User{
		UserID:      "u1",
		Name:        "Priya",
		Gender:      "female",
		Age:         28,
		HealthGoals: []string{"diabetes management"},
	}
	user.Onboarding.CurrentStep = models.StepCompleted
	user.Onboarding.Completed = true

	_, updated, err := svc.ApplyTurn(context.Background(), user, "thanks a lot")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(updated.HealthGoals) != 1 || updated.HealthGoals[0] != "diabetes management" {
		t.Errorf("Expected stored goals to survive, got %v", updated.HealthGoals)
	}
	if _, ok := writer.updates["healthGoals"]; ok {
		t.Error("Expected no goals update to be persisted")
	}
}
