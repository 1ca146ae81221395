package service

import (
	"testing"

	"github.com/torqhq/torq-backend/internal/model"
)

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }

func validCustomConfig() *model.TestConfig {
	return &model.TestConfig{
		SelectedExam: "jee",
		TestType:     model.TestTypeCustom,
		CustomConfig: &model.CustomConfig{
			TestName:        "Evening drill",
			QuestionType:    model.QuestionKindBoth,
			RatioMCQPercent: intPtr(50),
			DurationMinutes: 60,
			Subjects: []model.SubjectSelection{
				{SubjectID: "phy", ChapterIDs: []string{"kinematics"}, Count: 10},
			},
		},
	}
}

func TestSplitCounts(t *testing.T) {
	cases := []struct {
		name      string
		count     int
		kind      model.QuestionKind
		ratio     int
		wantMCQ   int
		wantNumer int
	}{
		{"mcq only", 10, model.QuestionKindMCQ, 0, 10, 0},
		{"numerical only", 10, model.QuestionKindNumerical, 0, 0, 10},
		{"even split", 10, model.QuestionKindBoth, 50, 5, 5},
		{"round half up", 25, model.QuestionKindBoth, 50, 13, 12},
		{"all mcq ratio", 10, model.QuestionKindBoth, 100, 10, 0},
		{"no mcq ratio", 10, model.QuestionKindBoth, 0, 0, 10},
		{"uneven ratio", 7, model.QuestionKindBoth, 30, 2, 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mcq, numerical := SplitCounts(tc.count, tc.kind, tc.ratio)
			if mcq != tc.wantMCQ || numerical != tc.wantNumer {
				t.Errorf("SplitCounts(%d, %s, %d) = (%d, %d), want (%d, %d)",
					tc.count, tc.kind, tc.ratio, mcq, numerical, tc.wantMCQ, tc.wantNumer)
			}
		})
	}
}

func TestResolvePlanCustom(t *testing.T) {
	plan, fields := ResolvePlan(validCustomConfig(), 10)
	if fields != nil {
		t.Fatalf("unexpected field errors: %v", fields)
	}

	if plan.Mode != model.TestTypeCustom {
		t.Errorf("Mode = %s, want custom", plan.Mode)
	}
	if len(plan.Subjects) != 1 {
		t.Fatalf("Subjects = %d, want 1", len(plan.Subjects))
	}
	if plan.Subjects[0].MCQCount != 5 || plan.Subjects[0].NumericalCount != 5 {
		t.Errorf("split = %d/%d, want 5/5", plan.Subjects[0].MCQCount, plan.Subjects[0].NumericalCount)
	}
	if plan.DurationMinutes != 60 {
		t.Errorf("DurationMinutes = %d, want 60", plan.DurationMinutes)
	}
	if got := plan.TotalCount(); got != 10 {
		t.Errorf("TotalCount = %d, want 10", got)
	}
}

func TestResolvePlanDurationFloor(t *testing.T) {
	cfg := validCustomConfig()
	cfg.CustomConfig.DurationMinutes = 3

	plan, fields := ResolvePlan(cfg, 10)
	if fields != nil {
		t.Fatalf("unexpected field errors: %v", fields)
	}
	if plan.DurationMinutes != 10 {
		t.Errorf("DurationMinutes = %d, want floor of 10", plan.DurationMinutes)
	}
}

func TestResolvePlanPast(t *testing.T) {
	cfg := &model.TestConfig{
		SelectedExam:  "jee",
		TestType:      model.TestTypePast,
		SelectedPaper: strPtr("jee-2023-jan"),
	}

	plan, fields := ResolvePlan(cfg, 10)
	if fields != nil {
		t.Fatalf("unexpected field errors: %v", fields)
	}
	if plan.Mode != model.TestTypePast || plan.PaperID != "jee-2023-jan" {
		t.Errorf("plan = %+v, want past paper jee-2023-jan", plan)
	}
}

func TestResolvePlanValidationErrors(t *testing.T) {
	cases := []struct {
		name      string
		mutate    func(*model.TestConfig)
		wantField string
	}{
		{
			"missing exam",
			func(c *model.TestConfig) { c.SelectedExam = "" },
			"selectedExam",
		},
		{
			"unknown test type",
			func(c *model.TestConfig) { c.TestType = "marathon" },
			"testType",
		},
		{
			"missing custom config",
			func(c *model.TestConfig) { c.CustomConfig = nil },
			"customConfig",
		},
		{
			"no subjects",
			func(c *model.TestConfig) { c.CustomConfig.Subjects = nil },
			"customConfig.selectedSubjects",
		},
		{
			"missing ratio for both",
			func(c *model.TestConfig) { c.CustomConfig.RatioMCQPercent = nil },
			"customConfig.ratio",
		},
		{
			"ratio out of range",
			func(c *model.TestConfig) { c.CustomConfig.RatioMCQPercent = intPtr(150) },
			"customConfig.ratio",
		},
		{
			"bad question type",
			func(c *model.TestConfig) { c.CustomConfig.QuestionType = "essay" },
			"customConfig.questionType",
		},
		{
			"non-positive duration",
			func(c *model.TestConfig) { c.CustomConfig.DurationMinutes = 0 },
			"customConfig.duration",
		},
		{
			"no chapters on subject",
			func(c *model.TestConfig) { c.CustomConfig.Subjects[0].ChapterIDs = nil },
			"customConfig.selectedSubjects[0].chapters",
		},
		{
			"zero count on subject",
			func(c *model.TestConfig) { c.CustomConfig.Subjects[0].Count = 0 },
			"customConfig.selectedSubjects[0].count",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validCustomConfig()
			tc.mutate(cfg)

			plan, fields := ResolvePlan(cfg, 10)
			if plan != nil {
				t.Fatal("expected nil plan on validation failure")
			}
			if _, ok := fields[tc.wantField]; !ok {
				t.Errorf("fields = %v, want key %q", fields, tc.wantField)
			}
		})
	}
}

func TestResolvePlanPastMissingPaper(t *testing.T) {
	cfg := &model.TestConfig{SelectedExam: "jee", TestType: model.TestTypePast}

	plan, fields := ResolvePlan(cfg, 10)
	if plan != nil {
		t.Fatal("expected nil plan")
	}
	if _, ok := fields["selectedPaper"]; !ok {
		t.Errorf("fields = %v, want selectedPaper", fields)
	}
}

func TestPreviewPlanTotals(t *testing.T) {
	cfg := validCustomConfig()
	cfg.CustomConfig.Subjects = append(cfg.CustomConfig.Subjects,
		model.SubjectSelection{SubjectID: "chem", ChapterIDs: []string{"organic"}, Count: 15},
	)

	plan, fields := ResolvePlan(cfg, 10)
	if fields != nil {
		t.Fatalf("unexpected field errors: %v", fields)
	}

	preview := PreviewPlan(plan)
	if preview.TotalCount != 25 {
		t.Errorf("TotalCount = %d, want 25", preview.TotalCount)
	}
	if len(preview.Subjects) != 2 {
		t.Fatalf("Subjects = %d, want 2", len(preview.Subjects))
	}
	// 15 at 50% rounds half up: 8 MCQ, 7 numerical.
	if preview.Subjects[1].MCQCount != 8 || preview.Subjects[1].NumericalCount != 7 {
		t.Errorf("chem split = %d/%d, want 8/7",
			preview.Subjects[1].MCQCount, preview.Subjects[1].NumericalCount)
	}
	if preview.Duration != 60 {
		t.Errorf("Duration = %d, want 60", preview.Duration)
	}
}
