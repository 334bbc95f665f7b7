package service

import (
	"coursewise_backend/internal/model"
)

// SpecializationService tracks progress through elective groups. Groups
// are independent: a course that belongs to two tracks counts toward
// both, and any exclusivity policy is the caller's concern.
type SpecializationService struct{}

func NewSpecializationService() *SpecializationService {
	return &SpecializationService{}
}

func (s *SpecializationService) TrackProgress(profile *model.StudentProfile, snap *CurriculumSnapshot) []model.GroupProgress {
	progress := make([]model.GroupProgress, 0, len(snap.Groups))
	for i := range snap.Groups {
		group := &snap.Groups[i]

		earned := 0
		for _, member := range group.Courses {
			if outcome, ok := profile.Outcomes[member.CourseCode]; ok && outcome.Status == model.GradePassed {
				earned += outcome.Credits
			}
		}

		remaining := group.RequiredCredits - earned
		if remaining < 0 {
			remaining = 0
		}

		progress = append(progress, model.GroupProgress{
			GroupID:         group.ID,
			Name:            group.Name,
			EarnedCredits:   earned,
			RequiredCredits: group.RequiredCredits,
			Satisfied:       earned >= group.RequiredCredits,
			Remaining:       remaining,
		})
	}
	return progress
}

// LeadingTrack names the group the student has invested the most credits
// in, or nil below the threshold. Used to bias recommendations once a
// direction has emerged.
func (s *SpecializationService) LeadingTrack(progress []model.GroupProgress, minCredits int) *model.GroupProgress {
	var lead *model.GroupProgress
	for i := range progress {
		p := &progress[i]
		if p.EarnedCredits < minCredits {
			continue
		}
		if lead == nil || p.EarnedCredits > lead.EarnedCredits {
			lead = p
		}
	}
	return lead
}
