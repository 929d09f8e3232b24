package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"disha/internal/database"
	"disha/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrUserNotFound is returned when a user lookup misses
var ErrUserNotFound = errors.New("user not found")

// UserService owns reads and writes on the users collection
type UserService struct {
	collection *mongo.Collection
}

// NewUserService creates a new user service
func NewUserService(db *database.MongoDB) *UserService {
	return &UserService{
		collection: db.Collection(database.CollectionUsers),
	}
}

// GetByID fetches a user by their identity key
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

// GetOrCreate fetches a user, creating a fresh profile on first contact
func (s *UserService) GetOrCreate(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	fresh := &models.User{
		UserID: userID,
		Onboarding: models.OnboardingState{
			Completed:   false,
			CurrentStep: models.StepNotStarted,
			StartedAt:   &now,
		},
		Preferences:  models.UserPreferences{Language: "en"},
		CreatedAt:    now,
		UpdatedAt:    now,
		LastActiveAt: now,
	}

	if _, err := s.collection.InsertOne(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("👤 Created new user: %s", userID)

	return fresh, nil
}

// ApplyUpdates performs a partial $set on a user document
func (s *UserService) ApplyUpdates(ctx context.Context, userID string, updates bson.M) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updatedAt"] = time.Now().UTC()

	_, err := s.collection.UpdateOne(ctx, bson.M{"userId": userID}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Update applies a client-supplied partial profile update
func (s *UserService) Update(ctx context.Context, userID string, req *models.UpdateUserRequest) (*models.User, error) {
	updates := bson.M{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Age != nil {
		updates["age"] = *req.Age
	}
	if req.Gender != nil {
		updates["gender"] = *req.Gender
	}
	if req.WeightKg != nil {
		updates["weightKg"] = *req.WeightKg
	}
	if req.HeightCm != nil {
		updates["heightCm"] = *req.HeightCm
	}
	if req.HealthGoals != nil {
		updates["healthGoals"] = *req.HealthGoals
	}
	if req.KnownConditions != nil {
		updates["knownConditions"] = *req.KnownConditions
	}

	if err := s.ApplyUpdates(ctx, userID, updates); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, userID)
}

// TouchLastActive stamps the user's last activity time
func (s *UserService) TouchLastActive(ctx context.Context, userID string) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"lastActiveAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to touch user activity: %w", err)
	}
	return nil
}
