package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Protocol categories
const (
	ProtocolCategorySymptom  = "SYMPTOM"
	ProtocolCategoryDisease  = "DISEASE"
	ProtocolCategoryWellness = "WELLNESS"
	ProtocolCategoryPolicy   = "POLICY"
)

// Protocol severities
const (
	ProtocolSeverityLow    = "LOW"
	ProtocolSeverityMedium = "MEDIUM"
	ProtocolSeverityHigh   = "HIGH"
)

// Protocol is a keyword-tagged health guideline injected into the prompt
// when its keywords match the user's query. Lower priority wins tie-breaks.
type Protocol struct {
	ID                       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                     string             `bson:"name" json:"name"`
	DisplayName              string             `bson:"displayName" json:"display_name"`
	Category                 string             `bson:"category" json:"category"`
	Keywords                 []string           `bson:"keywords" json:"keywords"`
	KeywordsHindi            []string           `bson:"keywordsHindi,omitempty" json:"keywords_hindi,omitempty"`
	Content                  string             `bson:"content" json:"content"`
	Severity                 string             `bson:"severity" json:"severity"`
	DoctorReferralConditions []string           `bson:"doctorReferralConditions,omitempty" json:"doctor_referral_conditions,omitempty"`
	Priority                 int                `bson:"priority" json:"priority"`
	Active                   bool               `bson:"active" json:"active"`
	CreatedAt                time.Time          `bson:"createdAt" json:"created_at"`
}

// AllKeywords returns the combined English and Hindi keyword lists
func (p *Protocol) AllKeywords() []string {
	all := make([]string, 0, len(p.Keywords)+len(p.KeywordsHindi))
	all = append(all, p.Keywords...)
	all = append(all, p.KeywordsHindi...)
	return all
}

// ToContextString renders the protocol for LLM context
func (p *Protocol) ToContextString() string {
	return fmt.Sprintf("## %s\n%s", p.DisplayName, p.Content)
}
