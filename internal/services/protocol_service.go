package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"disha/internal/database"
	"disha/internal/models"

	"github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrProtocolNotFound is returned when a protocol lookup misses
var ErrProtocolNotFound = errors.New("protocol not found")

const (
	protocolCacheKey = "protocols:active"
	protocolCacheTTL = 30 * time.Minute

	// DefaultMaxMatches caps how many protocols one query can pull into context
	DefaultMaxMatches = 2
)

// ProtocolService matches user queries against the health protocol catalog
// using keyword scoring. The active catalog is cached in-process; staleness
// is bounded by explicit invalidation and the cache TTL.
type ProtocolService struct {
	collection *mongo.Collection
	catalog    *cache.Cache
}

// NewProtocolService creates a new protocol service
func NewProtocolService(db *database.MongoDB) *ProtocolService {
	return &ProtocolService{
		collection: db.Collection(database.CollectionProtocols),
		catalog:    cache.New(protocolCacheTTL, 10*time.Minute),
	}
}

// loadProtocols returns all active protocols sorted by ascending priority,
// from cache when warm.
func (s *ProtocolService) loadProtocols(ctx context.Context) ([]models.Protocol, error) {
	if cached, found := s.catalog.Get(protocolCacheKey); found {
		return cached.([]models.Protocol), nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load protocols: %w", err)
	}
	defer cursor.Close(ctx)

	var protocols []models.Protocol
	if err := cursor.All(ctx, &protocols); err != nil {
		return nil, fmt.Errorf("failed to decode protocols: %w", err)
	}

	s.catalog.Set(protocolCacheKey, protocols, protocolCacheTTL)
	log.Printf("📚 Loaded %d protocols into cache", len(protocols))

	return protocols, nil
}

// Invalidate drops the cached catalog so the next match reloads it
func (s *ProtocolService) Invalidate() {
	s.catalog.Delete(protocolCacheKey)
}

// Match scores the catalog against the query and returns the top matches,
// best score first, ties broken by lower priority. An empty category
// matches all categories.
func (s *ProtocolService) Match(ctx context.Context, query, category string, maxMatches int) ([]models.Protocol, error) {
	protocols, err := s.loadProtocols(ctx)
	if err != nil {
		return nil, err
	}

	queryWords := tokenSet(query)

	type scoredProtocol struct {
		score    float64
		protocol models.Protocol
	}
	var scored []scoredProtocol

	for _, p := range protocols {
		if category != "" && p.Category != category {
			continue
		}
		score := matchScore(queryWords, &p)
		if score > 0 {
			scored = append(scored, scoredProtocol{score, p})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].protocol.Priority < scored[j].protocol.Priority
	})

	if maxMatches <= 0 {
		maxMatches = DefaultMaxMatches
	}
	if len(scored) > maxMatches {
		scored = scored[:maxMatches]
	}

	matches := make([]models.Protocol, 0, len(scored))
	for _, sp := range scored {
		matches = append(matches, sp.protocol)
	}
	return matches, nil
}

// matchScore sums 2 per exact keyword hit and 1 per first partial hit per
// query token, normalized by the entry's keyword count so keyword-heavy
// entries need proportionally more hits to rank equally.
func matchScore(queryWords map[string]bool, p *models.Protocol) float64 {
	keywords := p.AllKeywords()
	if len(keywords) == 0 {
		return 0
	}

	lowered := make([]string, len(keywords))
	exact := make(map[string]bool, len(keywords))
	for i, k := range keywords {
		lk := strings.ToLower(k)
		lowered[i] = lk
		exact[lk] = true
	}

	matches := 0
	for word := range queryWords {
		if exact[word] {
			matches += 2
			continue
		}
		for _, keyword := range lowered {
			if strings.Contains(keyword, word) || strings.Contains(word, keyword) {
				matches++
				break
			}
		}
	}

	if matches == 0 {
		return 0
	}
	return float64(matches) / float64(len(keywords))
}

func tokenSet(query string) map[string]bool {
	words := map[string]bool{}
	for _, w := range wordPattern.FindAllString(strings.ToLower(strings.TrimSpace(query)), -1) {
		words[w] = true
	}
	return words
}

// Context renders the top matching protocols as a prompt section.
// Returns "" when nothing matches.
func (s *ProtocolService) Context(ctx context.Context, query string, maxMatches int) (string, error) {
	protocols, err := s.Match(ctx, query, "", maxMatches)
	if err != nil {
		return "", err
	}
	if len(protocols) == 0 {
		return "", nil
	}

	parts := []string{"## Relevant Health Guidelines\n"}
	for _, p := range protocols {
		parts = append(parts, p.ToContextString(), "")
	}
	return strings.Join(parts, "\n"), nil
}

// GetByName fetches one active protocol by its unique name
func (s *ProtocolService) GetByName(ctx context.Context, name string) (*models.Protocol, error) {
	var protocol models.Protocol
	err := s.collection.FindOne(ctx, bson.M{"name": name, "active": true}).Decode(&protocol)
	if err == mongo.ErrNoDocuments {
		return nil, ErrProtocolNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch protocol: %w", err)
	}
	return &protocol, nil
}

// GetAll returns the full active catalog
func (s *ProtocolService) GetAll(ctx context.Context) ([]models.Protocol, error) {
	return s.loadProtocols(ctx)
}

// Upsert inserts or replaces a protocol by name and invalidates the cache
func (s *ProtocolService) Upsert(ctx context.Context, protocol *models.Protocol) error {
	if protocol.CreatedAt.IsZero() {
		protocol.CreatedAt = time.Now().UTC()
	}

	opts := options.Replace().SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, bson.M{"name": protocol.Name}, protocol, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert protocol %s: %w", protocol.Name, err)
	}

	s.Invalidate()
	return nil
}

// Deactivate soft-disables a protocol and invalidates the cache
func (s *ProtocolService) Deactivate(ctx context.Context, name string) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"name": name},
		bson.M{"$set": bson.M{"active": false}},
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate protocol %s: %w", name, err)
	}
	if result.MatchedCount == 0 {
		return ErrProtocolNotFound
	}

	s.Invalidate()
	return nil
}
