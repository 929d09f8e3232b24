package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"disha/internal/models"
)

// getBuiltinProtocols returns the default health protocol catalog used when
// no seed file is configured
func getBuiltinProtocols() []models.Protocol {
	now := time.Now().UTC()
	return []models.Protocol{
		{
			Name:          "fever_management",
			DisplayName:   "Fever Management",
			Category:      models.ProtocolCategorySymptom,
			Keywords:      []string{"fever", "temperature", "hot", "chills", "shivering"},
			KeywordsHindi: []string{"bukhar", "tez bukhar", "thand lagna"},
			Content:       `For fever below 102°F (38.9°C): rest, drink plenty of fluids (water, ORS, coconut water), and take paracetamol as per package directions if needed. Use a cool damp cloth on the forehead. Eat light, easily digestible food like khichdi or daliya. Monitor temperature every 4-6 hours.`,
			Severity:      models.ProtocolSeverityMedium,
			DoctorReferralConditions: []string{
				"fever above 103°F (39.4°C)",
				"fever lasting more than 3 days",
				"fever with rash, stiff neck, or confusion",
			},
			Priority:  2,
			Active:    true,
			CreatedAt: now,
		},
		{
			Name:          "diabetes_care",
			DisplayName:   "Diabetes Care",
			Category:      models.ProtocolCategoryDisease,
			Keywords:      []string{"diabetes", "sugar", "blood sugar", "glucose", "hba1c", "insulin"},
			KeywordsHindi: []string{"sugar ki bimari", "madhumeh"},
			Content:       `Keep meals regular and balanced: half plate vegetables, quarter protein (dal, paneer, eggs), quarter whole grains (roti, brown rice). Avoid sugary drinks, sweets, and refined flour (maida). Walk 30 minutes daily, ideally after meals. Never skip prescribed medication. Check blood sugar as advised by your doctor and keep a log.`,
			Severity:      models.ProtocolSeverityHigh,
			DoctorReferralConditions: []string{
				"fasting sugar consistently above 180 mg/dL",
				"symptoms of very low sugar (sweating, trembling, confusion)",
				"wounds that are not healing",
			},
			Priority:  1,
			Active:    true,
			CreatedAt: now,
		},
		{
			Name:          "pcos_support",
			DisplayName:   "PCOS Support",
			Category:      models.ProtocolCategoryDisease,
			Keywords:      []string{"pcos", "pcod", "periods", "irregular periods", "hormonal", "cysts"},
			KeywordsHindi: []string{"mahavari", "periods ki problem"},
			Content:       `PCOS improves most with steady lifestyle changes: aim for 150 minutes of moderate exercise weekly (brisk walking, yoga, strength training), choose low-glycemic foods (whole grains, dals, vegetables), limit sugar and fried snacks, and keep a consistent sleep schedule. Even 5-10% weight reduction can noticeably regulate cycles. Track your periods to share patterns with your doctor.`,
			Severity:      models.ProtocolSeverityMedium,
			DoctorReferralConditions: []string{
				"no period for more than 3 months",
				"very heavy or painful bleeding",
				"planning pregnancy",
			},
			Priority:  1,
			Active:    true,
			CreatedAt: now,
		},
		{
			Name:          "weight_management",
			DisplayName:   "Weight Management",
			Category:      models.ProtocolCategoryWellness,
			Keywords:      []string{"weight", "lose weight", "fat", "obesity", "slim", "bmi"},
			KeywordsHindi: []string{"wajan", "motapa", "wajan kam"},
			Content:       `Sustainable weight loss is 0.5-1 kg per week. Build meals around protein and fiber (dal, sprouts, curd, vegetables), watch portion sizes rather than banning foods, and avoid liquid calories. Move daily: 8,000-10,000 steps is a strong start. Sleep 7-8 hours, since poor sleep drives cravings. Crash diets regain weight; consistency wins.`,
			Severity:      models.ProtocolSeverityLow,
			DoctorReferralConditions: []string{
				"unexplained rapid weight loss or gain",
				"BMI above 35 before starting intense exercise",
			},
			Priority:  3,
			Active:    true,
			CreatedAt: now,
		},
		{
			Name:          "sleep_hygiene",
			DisplayName:   "Sleep Hygiene",
			Category:      models.ProtocolCategoryWellness,
			Keywords:      []string{"sleep", "insomnia", "tired", "can't sleep", "sleepless"},
			KeywordsHindi: []string{"neend", "neend nahi aati"},
			Content:       `Fix a consistent sleep and wake time, even on weekends. Stop screens 30-60 minutes before bed. Keep the room dark and cool. Avoid caffeine after 4pm and heavy meals within 2 hours of bedtime. If awake for more than 20 minutes, get up and do something calm in dim light rather than scrolling. A short wind-down routine (warm bath, light reading) signals the body it is time to sleep.`,
			Severity:      models.ProtocolSeverityLow,
			DoctorReferralConditions: []string{
				"loud snoring with pauses in breathing",
				"insomnia lasting more than 4 weeks despite good habits",
			},
			Priority:  4,
			Active:    true,
			CreatedAt: now,
		},
		{
			Name:          "stress_management",
			DisplayName:   "Stress Management",
			Category:      models.ProtocolCategoryWellness,
			Keywords:      []string{"stress", "anxiety", "tension", "overwhelmed", "panic", "worried"},
			KeywordsHindi: []string{"tanav", "chinta", "pareshan"},
			Content:       `Short daily practices beat occasional big efforts: 5 minutes of slow breathing (4 counts in, 6 counts out), a 15-minute walk outdoors, and writing down tomorrow's top 3 tasks before bed. Limit news and social media when feeling overwhelmed. Talk to someone you trust. Regular exercise and steady sleep are the strongest natural stress reducers.`,
			Severity:      models.ProtocolSeverityMedium,
			DoctorReferralConditions: []string{
				"panic attacks",
				"stress interfering with work or relationships for weeks",
				"any thoughts of self-harm",
			},
			Priority:  2,
			Active:    true,
			CreatedAt: now,
		},
		{
			Name:          "hydration_basics",
			DisplayName:   "Hydration Basics",
			Category:      models.ProtocolCategoryWellness,
			Keywords:      []string{"water", "hydration", "dehydration", "thirsty", "headache"},
			KeywordsHindi: []string{"pani", "pyaas"},
			Content:       `Aim for 2.5-3 liters of fluids daily, more in summer or with exercise. Urine should be pale yellow. Start the day with a glass of water, keep a bottle at your desk, and prefer water, nimbu pani, or buttermilk over sugary drinks. Mild headaches and afternoon fatigue are often just dehydration.`,
			Severity:      models.ProtocolSeverityLow,
			DoctorReferralConditions: []string{
				"signs of severe dehydration (dizziness, very dark urine, confusion)",
			},
			Priority:  5,
			Active:    true,
			CreatedAt: now,
		},
		{
			Name:          "medical_disclaimer_policy",
			DisplayName:   "Medical Guidance Policy",
			Category:      models.ProtocolCategoryPolicy,
			Keywords:      []string{"medicine", "prescription", "dose", "tablet", "medication"},
			KeywordsHindi: []string{"dawai", "dawa"},
			Content:       `Never recommend specific prescription medicines or doses. General guidance only: take medicines exactly as prescribed, do not stop or change doses without consulting the doctor, and mention any side effects to the prescribing doctor. Home remedies may supplement but never replace prescribed treatment.`,
			Severity:      models.ProtocolSeverityHigh,
			DoctorReferralConditions: []string{
				"any question about changing prescribed medication",
			},
			Priority:  1,
			Active:    true,
			CreatedAt: now,
		},
	}
}

// LoadSeedFile reads a protocol catalog from a JSON file
func LoadSeedFile(path string) ([]models.Protocol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var protocols []models.Protocol
	if err := json.Unmarshal(data, &protocols); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	now := time.Now().UTC()
	for i := range protocols {
		protocols[i].Active = true
		if protocols[i].CreatedAt.IsZero() {
			protocols[i].CreatedAt = now
		}
	}
	return protocols, nil
}

// SeedProtocols upserts the catalog from the seed file when configured,
// otherwise from the builtin set. Existing entries are replaced by name.
func (s *ProtocolService) SeedProtocols(ctx context.Context, seedFile string) error {
	var protocols []models.Protocol
	var err error

	if seedFile != "" {
		protocols, err = LoadSeedFile(seedFile)
		if err != nil {
			return err
		}
		log.Printf("🌱 Seeding %d protocols from %s", len(protocols), seedFile)
	} else {
		protocols = getBuiltinProtocols()
		log.Printf("🌱 Seeding %d builtin protocols", len(protocols))
	}

	for i := range protocols {
		if err := s.Upsert(ctx, &protocols[i]); err != nil {
			return err
		}
	}

	s.Invalidate()
	return nil
}
