package service

import (
	"coursewise_backend/internal/model"
	"coursewise_backend/internal/repository"
	"coursewise_backend/internal/util"
	"fmt"
	"sort"
	"strings"
	"sync"

	"coursewise_backend/pkg/logger"

	"go.uber.org/zap"
)

// CurriculumSnapshot is one immutable, validated curriculum version.
// Snapshots are built once at load and shared read-only afterwards.
type CurriculumSnapshot struct {
	EntryYear   int
	Courses     map[string]*model.Course
	Prereqs     map[string][]model.CoursePrerequisite
	Groups      []model.ElectiveGroup
	Offerings   map[int]map[string]bool
	Regulations string
}

func (s *CurriculumSnapshot) Course(code string) (*model.Course, bool) {
	c, ok := s.Courses[code]
	return c, ok
}

// PrerequisitesOf returns the edges into code, ordered by required code.
func (s *CurriculumSnapshot) PrerequisitesOf(code string) []model.CoursePrerequisite {
	return s.Prereqs[code]
}

// OfferedIn returns the set of codes offered in the given semester, or nil
// when the version carries no offering data for it. A nil set means the
// whole catalog is open; eligibility checks add no not-offered reasons.
func (s *CurriculumSnapshot) OfferedIn(semester int) map[string]bool {
	set := s.Offerings[semester]
	if len(set) == 0 {
		return nil
	}
	return set
}

// Dependents counts, per course, how many other courses name it as a hard
// prerequisite. The count feeds the fallback recommender's priority
// scoring: a course that unlocks three others outranks a leaf.
func (s *CurriculumSnapshot) Dependents() map[string]int {
	counts := make(map[string]int, len(s.Courses))
	for _, edges := range s.Prereqs {
		for _, e := range edges {
			if !e.IsCorequisite {
				counts[e.RequiredCode]++
			}
		}
	}
	return counts
}

// SortedCourses returns the catalog in code order for deterministic output.
func (s *CurriculumSnapshot) SortedCourses() []*model.Course {
	codes := make([]string, 0, len(s.Courses))
	for code := range s.Courses {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	out := make([]*model.Course, 0, len(codes))
	for _, code := range codes {
		out = append(out, s.Courses[code])
	}
	return out
}

// CurriculumService loads versioned snapshots and serves the right one per
// student entry year. A snapshot whose prerequisite graph has a cycle is
// rejected at load and never served; on reload failure the previous set
// keeps serving.
type CurriculumService struct {
	CourseRepo   *repository.CourseRepository
	ElectiveRepo *repository.ElectiveRepository

	mu        sync.RWMutex
	snapshots map[int]*CurriculumSnapshot
	years     []int
}

func NewCurriculumService(courseRepo *repository.CourseRepository, electiveRepo *repository.ElectiveRepository) *CurriculumService {
	return &CurriculumService{
		CourseRepo:   courseRepo,
		ElectiveRepo: electiveRepo,
		snapshots:    map[int]*CurriculumSnapshot{},
	}
}

// Load reads every curriculum version from storage, validates each one and
// swaps the serving set atomically.
func (s *CurriculumService) Load() error {
	years, err := s.CourseRepo.ListEntryYears()
	if err != nil {
		return err
	}
	if len(years) == 0 {
		return fmt.Errorf("no curriculum versions in storage")
	}

	next := make(map[int]*CurriculumSnapshot, len(years))
	for _, year := range years {
		courses, err := s.CourseRepo.ListByEntryYear(year)
		if err != nil {
			return err
		}
		prereqs, err := s.CourseRepo.ListPrerequisites(year)
		if err != nil {
			return err
		}
		groups, err := s.ElectiveRepo.ListGroupsByEntryYear(year)
		if err != nil {
			return err
		}
		offerings, err := s.CourseRepo.ListOfferings(year)
		if err != nil {
			return err
		}
		regulations, err := s.CourseRepo.ListRegulations(year)
		if err != nil {
			return err
		}

		snap, err := BuildSnapshot(year, courses, prereqs, groups, offerings)
		if err != nil {
			return err
		}
		snap.Regulations = joinRegulations(regulations)
		next[year] = snap
	}

	sort.Ints(years)

	s.mu.Lock()
	s.snapshots = next
	s.years = years
	s.mu.Unlock()

	logger.Log.Info("curriculum loaded", zap.Ints("versions", years))
	return nil
}

// SnapshotFor picks the newest version whose entry year does not exceed
// the student's. Students older than every version get the oldest one.
func (s *CurriculumService) SnapshotFor(entryYear int) (*CurriculumSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.years) == 0 {
		return nil, util.ErrCurriculumNotFound
	}

	chosen := s.years[0]
	for _, y := range s.years {
		if y <= entryYear {
			chosen = y
		}
	}
	return s.snapshots[chosen], nil
}

// BuildSnapshot validates courses, edges and offerings and assembles the
// immutable snapshot. Edges or offerings naming unknown courses and cyclic
// prerequisite chains are all load-time failures.
func BuildSnapshot(entryYear int, courses []model.Course, prereqs []model.CoursePrerequisite, groups []model.ElectiveGroup, offerings []model.CourseOffering) (*CurriculumSnapshot, error) {
	byCode := make(map[string]*model.Course, len(courses))
	for i := range courses {
		c := &courses[i]
		if c.Code == "" {
			return nil, &util.ValidationError{Field: "course.code", Message: "empty course code"}
		}
		if _, dup := byCode[c.Code]; dup {
			return nil, &util.ValidationError{Field: "course.code", Message: fmt.Sprintf("duplicate course %s in curriculum %d", c.Code, entryYear)}
		}
		byCode[c.Code] = c
	}

	edges := make(map[string][]model.CoursePrerequisite, len(prereqs))
	for _, e := range prereqs {
		if _, ok := byCode[e.CourseCode]; !ok {
			return nil, &util.ValidationError{Field: "prerequisite.courseCode", Message: fmt.Sprintf("edge references unknown course %s", e.CourseCode)}
		}
		if _, ok := byCode[e.RequiredCode]; !ok {
			return nil, &util.ValidationError{Field: "prerequisite.requiredCode", Message: fmt.Sprintf("edge references unknown course %s", e.RequiredCode)}
		}
		if e.CourseCode == e.RequiredCode {
			return nil, &util.CycleDetectedError{EntryYear: entryYear, From: e.CourseCode, To: e.RequiredCode}
		}
		edges[e.CourseCode] = append(edges[e.CourseCode], e)
	}
	for code := range edges {
		sort.Slice(edges[code], func(i, j int) bool {
			return edges[code][i].RequiredCode < edges[code][j].RequiredCode
		})
	}

	if from, to, found := findCycle(edges); found {
		return nil, &util.CycleDetectedError{EntryYear: entryYear, From: from, To: to}
	}

	offered := map[int]map[string]bool{}
	for _, o := range offerings {
		if _, ok := byCode[o.CourseCode]; !ok {
			return nil, &util.ValidationError{Field: "offering.courseCode", Message: fmt.Sprintf("offering references unknown course %s", o.CourseCode)}
		}
		if offered[o.Semester] == nil {
			offered[o.Semester] = map[string]bool{}
		}
		offered[o.Semester][o.CourseCode] = true
	}

	return &CurriculumSnapshot{
		EntryYear: entryYear,
		Courses:   byCode,
		Prereqs:   edges,
		Groups:    groups,
		Offerings: offered,
	}, nil
}

func joinRegulations(regulations []model.CurriculumRegulation) string {
	parts := make([]string, 0, len(regulations))
	for _, r := range regulations {
		if r.Title != "" {
			parts = append(parts, r.Title+"\n"+r.Body)
			continue
		}
		parts = append(parts, r.Body)
	}
	return strings.Join(parts, "\n\n")
}

const (
	colorWhite = iota
	colorGray
	colorBlack
)

// findCycle runs an iterative three-color depth-first search over the hard
// prerequisite edges. Corequisite edges are excluded: a mutual corequisite
// pair is legal. Returns one edge that closes a loop.
func findCycle(edges map[string][]model.CoursePrerequisite) (from, to string, found bool) {
	roots := make([]string, 0, len(edges))
	for code := range edges {
		roots = append(roots, code)
	}
	sort.Strings(roots)

	color := make(map[string]int, len(edges))

	type frame struct {
		node string
		next int
	}

	for _, root := range roots {
		if color[root] != colorWhite {
			continue
		}

		stack := []frame{{node: root}}
		color[root] = colorGray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := hardDeps(edges[top.node])

			if top.next >= len(deps) {
				color[top.node] = colorBlack
				stack = stack[:len(stack)-1]
				continue
			}

			dep := deps[top.next]
			top.next++

			switch color[dep] {
			case colorGray:
				return top.node, dep, true
			case colorWhite:
				color[dep] = colorGray
				stack = append(stack, frame{node: dep})
			}
		}
	}
	return "", "", false
}

func hardDeps(edges []model.CoursePrerequisite) []string {
	deps := make([]string, 0, len(edges))
	for _, e := range edges {
		if !e.IsCorequisite {
			deps = append(deps, e.RequiredCode)
		}
	}
	return deps
}
