package service

import (
	"fmt"
	"math"

	"github.com/torqhq/torq-backend/internal/model"
)

// SamplingPlan is the resolved, validated description of a test request:
// either a whole past paper, or per-subject MCQ/numerical draw counts. It is
// a transient value object; the raw config is what gets persisted for audit.
type SamplingPlan struct {
	Mode            model.TestType
	ExamID          string
	PaperID         string        // past mode only
	Subjects        []SubjectPlan // custom mode only
	DurationMinutes int           // custom mode only; past mode reads the paper
}

// SubjectPlan is one subject's resolved share of a custom test.
type SubjectPlan struct {
	SubjectID      string
	ChapterIDs     []string
	MCQCount       int
	NumericalCount int
}

// TotalCount is the number of questions the plan asks for.
func (p *SamplingPlan) TotalCount() int {
	total := 0
	for _, s := range p.Subjects {
		total += s.MCQCount + s.NumericalCount
	}
	return total
}

// ResolvePlan validates a raw test config and normalizes it into a
// SamplingPlan. On validation failure it returns a field → message map and a
// nil plan; the map keys mirror the client payload's field names.
func ResolvePlan(cfg *model.TestConfig, minDurationMinutes int) (*SamplingPlan, map[string]string) {
	fields := make(map[string]string)

	if cfg.SelectedExam == "" {
		fields["selectedExam"] = "an exam must be selected"
	}

	switch cfg.TestType {
	case model.TestTypePast:
		if cfg.SelectedPaper == nil || *cfg.SelectedPaper == "" {
			fields["selectedPaper"] = "a paper must be selected for a past paper test"
		}
		if len(fields) > 0 {
			return nil, fields
		}
		return &SamplingPlan{
			Mode:    model.TestTypePast,
			ExamID:  cfg.SelectedExam,
			PaperID: *cfg.SelectedPaper,
		}, nil

	case model.TestTypeCustom:
		cc := cfg.CustomConfig
		if cc == nil {
			fields["customConfig"] = "custom configuration is required for a custom test"
			return nil, fields
		}

		if len(cc.Subjects) == 0 {
			fields["customConfig.selectedSubjects"] = "at least one subject must be selected"
		}

		switch cc.QuestionType {
		case model.QuestionKindMCQ, model.QuestionKindNumerical:
		case model.QuestionKindBoth:
			if cc.RatioMCQPercent == nil {
				fields["customConfig.ratio"] = "a ratio is required when question type is both"
			} else if *cc.RatioMCQPercent < 0 || *cc.RatioMCQPercent > 100 {
				fields["customConfig.ratio"] = "ratio must be between 0 and 100"
			}
		default:
			fields["customConfig.questionType"] = "question type must be mcq, numerical or both"
		}

		if cc.DurationMinutes <= 0 {
			fields["customConfig.duration"] = "a positive duration is required"
		}

		plan := &SamplingPlan{
			Mode:   model.TestTypeCustom,
			ExamID: cfg.SelectedExam,
		}

		for i, sel := range cc.Subjects {
			if sel.SubjectID == "" {
				fields[fmt.Sprintf("customConfig.selectedSubjects[%d].subjectId", i)] = "a subject id is required"
				continue
			}
			if len(sel.ChapterIDs) == 0 {
				fields[fmt.Sprintf("customConfig.selectedSubjects[%d].chapters", i)] = "at least one chapter must be selected"
			}
			if sel.Count <= 0 {
				fields[fmt.Sprintf("customConfig.selectedSubjects[%d].count", i)] = "question count must be greater than zero"
			}
			if len(fields) > 0 {
				continue
			}

			ratio := 0
			if cc.RatioMCQPercent != nil {
				ratio = *cc.RatioMCQPercent
			}
			mcq, numerical := SplitCounts(sel.Count, cc.QuestionType, ratio)
			plan.Subjects = append(plan.Subjects, SubjectPlan{
				SubjectID:      sel.SubjectID,
				ChapterIDs:     sel.ChapterIDs,
				MCQCount:       mcq,
				NumericalCount: numerical,
			})
		}

		if len(fields) > 0 {
			return nil, fields
		}

		plan.DurationMinutes = cc.DurationMinutes
		if plan.DurationMinutes < minDurationMinutes {
			plan.DurationMinutes = minDurationMinutes
		}
		return plan, nil

	default:
		fields["testType"] = "test type must be past or custom"
		return nil, fields
	}
}

// SplitCounts resolves one subject's MCQ/numerical split. For "both" the MCQ
// share is round-half-up of count*ratio/100 and numericals take the rest.
// This exact rounding also drives the pre-generation preview, so it must
// match what assembly does.
func SplitCounts(count int, kind model.QuestionKind, ratioMCQPercent int) (mcq, numerical int) {
	switch kind {
	case model.QuestionKindMCQ:
		return count, 0
	case model.QuestionKindNumerical:
		return 0, count
	default:
		mcq = int(math.Floor(float64(count)*float64(ratioMCQPercent)/100 + 0.5))
		return mcq, count - mcq
	}
}

// PreviewPlan renders the deterministic pre-generation summary for a plan.
func PreviewPlan(plan *SamplingPlan) *model.TestPreview {
	preview := &model.TestPreview{Duration: plan.DurationMinutes}
	for _, s := range plan.Subjects {
		preview.Subjects = append(preview.Subjects, model.SubjectPreview{
			SubjectID:      s.SubjectID,
			MCQCount:       s.MCQCount,
			NumericalCount: s.NumericalCount,
		})
		preview.TotalCount += s.MCQCount + s.NumericalCount
	}
	return preview
}
