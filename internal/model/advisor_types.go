package model

// Transient types exchanged between the advisor services and controllers.
// Nothing in this file is persisted.

// CourseOutcome is the authoritative result of all attempts at one course:
// the best passing attempt wins, latest attempt breaks ties; with no passing
// attempt the latest attempt stands.
type CourseOutcome struct {
	CourseCode    string      `json:"courseCode"`
	Grade         *float64    `json:"grade,omitempty"`
	Status        GradeStatus `json:"status"`
	SemesterTaken int         `json:"semesterTaken"`
	AttemptNumber int         `json:"attemptNumber"`
	Attempts      int         `json:"attempts"`
	Credits       int         `json:"credits"`
}

// StudentProfile is the aggregated academic state a recommendation is
// computed from.
type StudentProfile struct {
	StudentID        uint    `json:"studentId"`
	EntryYear        int     `json:"entryYear"`
	CurrentSemester  int     `json:"currentSemester"`
	GPA              float64 `json:"gpa"`
	CompletedCredits int     `json:"completedCredits"`
	// GradedCredits is the total credit weight that entered the GPA.
	// Withdrawn courses and courses unknown to the snapshot carry none,
	// so a zero here means the GPA is vacuous, not earned.
	GradedCredits int                      `json:"gradedCredits"`
	CreditsByType map[CourseType]int       `json:"creditsByType"`
	Outcomes      map[string]CourseOutcome `json:"outcomes"`
}

// Passed reports whether the authoritative outcome for code is a pass.
func (p *StudentProfile) Passed(code string) bool {
	o, ok := p.Outcomes[code]
	return ok && o.Status == GradePassed
}

type ReasonKind string

const (
	ReasonAlreadyCompleted   ReasonKind = "already_completed"
	ReasonPrereqNotPassed    ReasonKind = "prerequisite_not_passed"
	ReasonPrereqGradeTooLow  ReasonKind = "prerequisite_grade_too_low"
	ReasonPrereqSameSemester ReasonKind = "prerequisite_same_semester"
	ReasonCorequisiteMissing ReasonKind = "corequisite_missing"
	ReasonNotOffered         ReasonKind = "not_offered"
	ReasonUnknownCourse      ReasonKind = "unknown_course"
)

// Reason explains one unmet requirement. Every unmet edge produces a
// reason; eligibility checks never stop at the first failure.
type Reason struct {
	Kind         ReasonKind `json:"kind"`
	CourseCode   string     `json:"courseCode"`
	RequiredCode string     `json:"requiredCode,omitempty"`
	MinimumGrade float64    `json:"minimumGrade,omitempty"`
	ActualGrade  *float64   `json:"actualGrade,omitempty"`
	Detail       string     `json:"detail,omitempty"`
}

type EligibilityResult struct {
	CourseCode string   `json:"courseCode"`
	Eligible   bool     `json:"eligible"`
	Reasons    []Reason `json:"reasons,omitempty"`
}

type StandingLabel string

const (
	StandingProbation StandingLabel = "probation"
	StandingNormal    StandingLabel = "normal"
	StandingGood      StandingLabel = "good"
	StandingExcellent StandingLabel = "excellent"
)

// Standing is the credit envelope for the student's next term.
type Standing struct {
	GPA           float64       `json:"gpa"`
	Label         StandingLabel `json:"label"`
	MaxCredits    int           `json:"maxCredits"`
	MinCredits    int           `json:"minCredits"`
	Probation     bool          `json:"probation"`
	FinalSemester bool          `json:"finalSemester"`
}

type GroupProgress struct {
	GroupID         uint   `json:"groupId"`
	Name            string `json:"name"`
	EarnedCredits   int    `json:"earnedCredits"`
	RequiredCredits int    `json:"requiredCredits"`
	Satisfied       bool   `json:"satisfied"`
	Remaining       int    `json:"remaining"`
}

type GraduationProgress struct {
	RequiredCredits    int     `json:"requiredCredits"`
	EarnedCredits      int     `json:"earnedCredits"`
	Percent            float64 `json:"percent"`
	Level              string  `json:"level"`
	SemestersRemaining int     `json:"semestersRemaining"`
}

// ParsedGradeEntry is one tokenized line of transcript input, before it has
// been matched against the catalog.
type ParsedGradeEntry struct {
	Label     string   `json:"label"`
	Grade     *float64 `json:"grade,omitempty"`
	Withdrawn bool     `json:"withdrawn,omitempty"`
	Semester  int      `json:"semester"`
}

type MatchCandidate struct {
	CourseCode string  `json:"courseCode"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

type ReconcileKind string

const (
	ReconcileConfirmed ReconcileKind = "confirmed"
	ReconcileAmbiguous ReconcileKind = "needs_clarification"
	ReconcileInvalid   ReconcileKind = "invalid"
)

// ReconcileOutcome is the per-entry verdict of grade reconciliation.
type ReconcileOutcome struct {
	Entry      ParsedGradeEntry `json:"entry"`
	Kind       ReconcileKind    `json:"kind"`
	Confirmed  *PendingGrade    `json:"confirmed,omitempty"`
	Candidates []MatchCandidate `json:"candidates,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// ContextCourse is a catalog entry as it appears inside an assembled
// recommendation context. Description is the first field truncation drops.
// PrereqFor counts the courses this one unlocks; FailedBefore marks a
// retake of a previously failed course. Both feed the priority scoring of
// the deterministic recommender.
type ContextCourse struct {
	Code                string     `json:"code"`
	Name                string     `json:"name"`
	Credits             int        `json:"credits"`
	Type                CourseType `json:"type"`
	RecommendedSemester *int       `json:"recommendedSemester,omitempty"`
	IsMandatory         bool       `json:"isMandatory"`
	PrereqFor           int        `json:"prereqFor,omitempty"`
	FailedBefore        bool       `json:"failedBefore,omitempty"`
	Description         string     `json:"description,omitempty"`
}

type ContextIneligible struct {
	Code    string   `json:"code"`
	Reasons []Reason `json:"reasons"`
}

type ContextGrade struct {
	CourseCode string      `json:"courseCode"`
	Grade      *float64    `json:"grade,omitempty"`
	Status     GradeStatus `json:"status"`
	Semester   int         `json:"semester"`
}

type ContextGroup struct {
	Name            string              `json:"name"`
	Priority        int                 `json:"priority"`
	EarnedCredits   int                 `json:"earnedCredits"`
	RequiredCredits int                 `json:"requiredCredits"`
	Satisfied       bool                `json:"satisfied"`
	Members         []ContextGroupEntry `json:"members,omitempty"`
}

type ContextGroupEntry struct {
	CourseCode string              `json:"courseCode"`
	Priority   int                 `json:"priority"`
	Level      RecommendationLevel `json:"level"`
}

// Advising strategies, picked from the student's situation. The label
// steers both the prompt and the fallback ordering rationale.
const (
	StrategyRecovery       = "recovery"
	StrategyGraduation     = "graduation"
	StrategySpecialization = "specialization"
	StrategyBalanced       = "balanced"
)

// RecommendationContext is the bounded, deterministic input handed to the
// generation capability. Standing and ineligibility reasons survive any
// truncation.
type RecommendationContext struct {
	StudentNumber     string              `json:"studentNumber"`
	EntryYear         int                 `json:"entryYear"`
	CurrentSemester   int                 `json:"currentSemester"`
	Strategy          string              `json:"strategy,omitempty"`
	Standing          Standing            `json:"standing"`
	Graduation        GraduationProgress  `json:"graduation"`
	EligibleCourses   []ContextCourse     `json:"eligibleCourses"`
	IneligibleCourses []ContextIneligible `json:"ineligibleCourses,omitempty"`
	GradeHistory      []ContextGrade      `json:"gradeHistory,omitempty"`
	Specialization    []ContextGroup      `json:"specialization,omitempty"`
	Preferences       *Preferences        `json:"preferences,omitempty"`
	Regulations       string              `json:"regulations,omitempty"`
}

type PlannedCourse struct {
	Code    string `json:"code"`
	Name    string `json:"name,omitempty"`
	Credits int    `json:"credits"`
	Reason  string `json:"reason,omitempty"`
}

// RecommendationPlan is what the student is ultimately shown. Source is
// "llm" or "fallback".
type RecommendationPlan struct {
	Source       string          `json:"source"`
	Courses      []PlannedCourse `json:"courses"`
	TotalCredits int             `json:"totalCredits"`
	Summary      string          `json:"summary,omitempty"`
}
