// Package schema is the single source of truth for the survey's canonical
// shape: which raw question labels map to which field names, which values the
// categorical fields may take, which fields are bounded 1-10 scales, and what
// SQL type each column carries in the target table.
//
// Everything here is fixed at compile time. The survey form changes rarely,
// and when it does, this file is the only place that needs editing.
package schema

// DefaultTable is the target table unless overridden in configuration.
const DefaultTable = "student_survey_responses"

// Canonical field names referenced across the pipeline.
const (
	ColResponseID = "response_id"
	ColTimestamp  = "timestamp"
	ColIngestedAt = "ingested_at"
	ColSchool     = "school"
	ColGPA        = "gpa"
)

// ColumnMappings maps raw survey question labels to canonical field names.
// Lookup happens after header normalization (trim + NFKC), so formatting
// drift in the sheet header row does not break the mapping.
var ColumnMappings = map[string]string{
	"Timestamp":                                                                                                      ColTimestamp,
	"1. What is your year of study?":                                                                                 "year_of_study",
	"2. Which School you belong to?":                                                                                 ColSchool,
	"3. On average, how many hours do you spend studying per day?":                                                   "study_hours_daily",
	"4. How do you typically organize your study schedule?":                                                          "study_schedule_type",
	"5. What is your typical study environment like?":                                                                "study_environment",
	"6. On a scale of 1 to 10, how focused do you feel during study sessions?":                                       "focus_level",
	"7. What is your current GPA if known? (Write NA if not known)":                                                  ColGPA,
	"8. On average, how many hours do you sleep per night?":                                                          "sleep_hours_nightly",
	"9. How do you feel about your sleep quality?":                                                                   "sleep_quality",
	"10. How productive do you feel on average after a full night of sleep (1-10 scale)?":                            "sleep_productivity_rating",
	"11. Do you often experience disruptions in your sleep (e.g., waking up during the night)?":                      "sleep_disruptions",
	"12. On a scale of 1 to 10, how would you rate your general stress level?":                                       "stress_level",
	"13. What are the main factors contributing to your stress?":                                                     "stress_factors",
	"14. How often do you feel overwhelmed by academic responsibilities (e.g., assignments, exams)?":                 "academic_overwhelm_frequency",
	"15. What activity do you most often turn to when you're feeling stressed or need to unwind?":                    "stress_relief_activity",
	"16. On average, how many hours do you spend on social media per day?":                                           "social_media_hours_daily",
	"17. Do you feel that social media affects your academic performance?":                                           "social_media_academic_impact",
	"18. Which social media platforms do you use most frequently?":                                                   "primary_social_platforms",
	"19. Which of the following extracurricular areas do you primarily participate in?":                              "extracurricular_type",
	"20. How many hours per week do you spend on extracurricular activities?":                                        "extracurricular_hours_weekly",
	"21. How does participating in extracurricular activities affect your overall academic and personal well-being?": "extracurricular_wellbeing_impact",
	"22. Do you feel prepared for your future career based on your current academic and extracurricular experience?": "career_preparedness",
	"23. Have you participated in any internships, co-op programs, or career development activities?":                "career_experience",
	"24. How confident are you in finding a job after graduation?":                                                   "job_confidence",
	"25. On a scale of 1–10, how motivated do you currently feel toward your academics and career goals?":            "career_motivation_level",
}

// RequiredColumns is the canonical output order. The transformer projects to
// exactly these columns (plus ingested_at appended last) and the loader's
// table mirrors them.
var RequiredColumns = []string{
	ColResponseID, ColTimestamp, "year_of_study", ColSchool,
	"study_hours_daily", "study_schedule_type", "study_environment", "focus_level", ColGPA,
	"sleep_hours_nightly", "sleep_quality", "sleep_productivity_rating", "sleep_disruptions",
	"stress_level", "stress_factors", "academic_overwhelm_frequency", "stress_relief_activity",
	"social_media_hours_daily", "social_media_academic_impact", "primary_social_platforms",
	"extracurricular_type", "extracurricular_hours_weekly", "extracurricular_wellbeing_impact",
	"career_preparedness", "career_experience", "job_confidence", "career_motivation_level",
}

// ExpectedColumns is the loader-side column set: RequiredColumns plus the
// ingested_at stamp the transformer appends at finalize time.
var ExpectedColumns = append(append([]string(nil), RequiredColumns...), ColIngestedAt)

// ScaleFields are bounded 1-10 integer ratings. Out-of-range answers become
// missing, never clamped.
var ScaleFields = []string{
	"focus_level", "sleep_productivity_rating", "stress_level",
	"job_confidence", "career_motivation_level",
}

// NumericColumns lists every column the loader coerces to a numeric type.
var NumericColumns = append(append([]string(nil), ScaleFields...), ColGPA)

// TimestampColumns lists every column the loader coerces to a timestamp.
var TimestampColumns = []string{ColTimestamp, ColIngestedAt}

// MultiSelectFields allow comma-separated multi-value answers.
var MultiSelectFields = []string{"stress_factors", "primary_social_platforms"}

// CategoricalMappings maps each categorical field's raw answer text to its
// canonical code. Keys are matched case-insensitively after NFKC
// normalization; several entries appear twice to cover both the ASCII
// apostrophe and the typographic one Google Forms emits. Unmapped answers
// pass through unchanged.
var CategoricalMappings = map[string]map[string]string{
	"year_of_study": {"1": "1", "2": "2", "3": "3", "4": "4", "5": "5"},
	ColSchool: {
		"SOCS": "SOCS", "SOAE": "SOAE", "SOB": "SOB", "SOL": "SOL",
		"SOD":  "SOD", "SOHST": "SOHST", "SOLS": "SOLS",
	},
	"study_hours_daily": {
		"1-2 hours": "1_2_hours", "3-4 hours": "3_4_hours",
		"5-6 hours": "5_6_hours", "More than 6 hours": "more_than_6_hours",
	},
	"study_schedule_type": {
		"Daily study routine":                      "daily",
		"Weekdays only (Monday - Friday)":          "weekdays_only",
		"Weekends only (Saturday - Sunday)":        "weekends_only",
		"Sporadic, depending on assignments/tests": "sporadic",
	},
	"study_environment": {
		"Quiet (Library, study room alone, etc.)":          "quiet",
		"Noisy or Distracting (Café, shared hostel, etc.)": "noisy",
		"I don't have a dedicated study space":             "no_dedicated_space",
		"I don’t have a dedicated study space":             "no_dedicated_space",
		"In Groups":                                        "group_study",
	},
	"sleep_hours_nightly": {
		"Less than 4 hours": "<4_hours", "4-5 hours": "4_5_hours",
		"6-7 hours":         "6_7_hours", "8 or more hours": "8+_hours",
	},
	"sleep_quality":     {"Poor": "poor", "Fair": "fair", "Good": "good", "Excellent": "excellent"},
	"sleep_disruptions": {"Yes, always": "always", "Sometimes": "sometimes", "Never": "never"},
	"stress_factors": {
		"Academic pressure":      "academics", "Financial concerns": "finance",
		"Personal/Family issues": "personal", "Time management": "time_management", "Other": "other",
	},
	"academic_overwhelm_frequency": {
		"Always": "always", "Often": "often", "Sometimes": "sometimes",
		"Rarely": "rarely", "Never": "never",
	},
	"stress_relief_activity": {
		"Watching movies, web series or YouTube":     "movies_youtube",
		"Instagram, Reels or other social media":     "social_media",
		"Listening to music or podcasts":             "music_podcasts",
		"Playing online games or outdoor sports":     "games_sports",
		"Talking or hanging out with friends/family": "talking_friends",
		"Exercising, yoga or going for a walk":       "exercise_yoga",
		"Reading or journaling":                      "reading",
		"Shopping":                                   "shopping",
		"Meditating or deep breathing":               "meditation",
		"Sleeping or taking naps":                    "sleeping",
		"I usually don't do anything specific":       "none",
		"I usually don’t do anything specific":       "none",
		"Other":                                      "other",
	},
	"social_media_hours_daily": {
		"Less than 1 hour": "<1_hour", "1-2 hours": "1_2_hours",
		"3-4 hours":        "3_4_hours", "More than 4 hours": "4+_hours",
	},
	"social_media_academic_impact": {
		"Positively (It improves my academic performance)": "positive",
		"Negatively (It degrades my academic performance)": "negative",
		"No, it doesn't affect my academic performance":    "no_effect",
		"No, it doesn’t affect my academic performance":    "no_effect",
		"Maybe":                                            "maybe",
	},
	"primary_social_platforms": {
		"Facebook": "facebook", "Instagram": "instagram", "X (Twitter)": "twitter",
		"Snapchat": "snapchat", "Reddit": "reddit", "Whatsapp": "whatsapp",
		"Telegram": "telegram", "YouTube": "youtube", "Discord": "discord",
		"LinkedIn": "linkedin", "Other": "other",
	},
	"extracurricular_type": {
		"Indoor Sports": "indoor_sports", "Outdoor Sports": "outdoor_sports",
		"Music":         "music", "Dancing/ Drama": "dance_drama", "Art": "art", "Other": "other",
	},
	"extracurricular_hours_weekly": {
		"Less than 1 hour": "<1_hour", "1-3 hours": "1_3_hours",
		"4-6 hours":        "4_6_hours", "More than 6 hours": "6+_hours",
	},
	"extracurricular_wellbeing_impact": {
		"Positively (helps me academically and reduces stress)":  "positive",
		"Mixed impact (helps in some ways, stressful in others)": "mixed",
		"Negatively (hurts academics or increases stress)":       "negative",
		"No noticeable effect":                                   "no_effect",
		"Not sure":                                               "unsure",
	},
	"career_preparedness": {
		"Yes, fully prepared": "fully_prepared", "Somewhat prepared": "somewhat_prepared",
		"Not prepared at all": "not_prepared",
	},
	"career_experience": {"Yes": "yes", "No": "no"},
}

// ColumnTypes carries the SQL type for each canonical column, used by the
// loader's CREATE TABLE.
var ColumnTypes = map[string]string{
	ColResponseID:                      "VARCHAR(64)",
	ColTimestamp:                       "TIMESTAMP WITH TIME ZONE",
	"year_of_study":                    "VARCHAR(10)",
	ColSchool:                          "VARCHAR(50)",
	"study_hours_daily":                "VARCHAR(50)",
	"study_schedule_type":              "VARCHAR(50)",
	"study_environment":                "VARCHAR(50)",
	"focus_level":                      "INTEGER",
	ColGPA:                             "DECIMAL(4,2)",
	"sleep_hours_nightly":              "VARCHAR(50)",
	"sleep_quality":                    "VARCHAR(50)",
	"sleep_productivity_rating":        "INTEGER",
	"sleep_disruptions":                "VARCHAR(50)",
	"stress_level":                     "INTEGER",
	"stress_factors":                   "TEXT",
	"academic_overwhelm_frequency":     "VARCHAR(50)",
	"stress_relief_activity":           "VARCHAR(100)",
	"social_media_hours_daily":         "VARCHAR(50)",
	"social_media_academic_impact":     "VARCHAR(50)",
	"primary_social_platforms":         "TEXT",
	"extracurricular_type":             "VARCHAR(50)",
	"extracurricular_hours_weekly":     "VARCHAR(50)",
	"extracurricular_wellbeing_impact": "VARCHAR(50)",
	"career_preparedness":              "VARCHAR(50)",
	"career_experience":                "VARCHAR(10)",
	"job_confidence":                   "INTEGER",
	"career_motivation_level":          "INTEGER",
	ColIngestedAt:                      "TIMESTAMP WITH TIME ZONE",
}

// IsMultiSelect reports whether field allows comma-separated answers.
func IsMultiSelect(field string) bool {
	for _, f := range MultiSelectFields {
		if f == field {
			return true
		}
	}
	return false
}

// IsNumeric reports whether column is numerically typed in the store.
func IsNumeric(column string) bool {
	for _, c := range NumericColumns {
		if c == column {
			return true
		}
	}
	return false
}

// IsTimestamp reports whether column holds a timestamp in the store.
func IsTimestamp(column string) bool {
	for _, c := range TimestampColumns {
		if c == column {
			return true
		}
	}
	return false
}
