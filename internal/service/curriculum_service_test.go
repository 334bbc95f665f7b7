package service

import (
	"errors"
	"testing"

	"coursewise_backend/internal/model"
	"coursewise_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSnapshot_Valid(t *testing.T) {
	courses := []model.Course{
		mkCourse("CS101", 4, model.CourseFoundation, true),
		mkCourse("CS102", 4, model.CourseFoundation, true),
		mkCourse("CS201", 3, model.CourseCore, true),
	}
	prereqs := []model.CoursePrerequisite{
		edge("CS102", "CS101"),
		edge("CS201", "CS102"),
	}

	snap, err := BuildSnapshot(1403, courses, prereqs, nil, nil)
	require.NoError(t, err)

	_, ok := snap.Course("CS101")
	assert.True(t, ok)
	assert.Len(t, snap.PrerequisitesOf("CS201"), 1)
	assert.Empty(t, snap.PrerequisitesOf("CS101"))

	sorted := snap.SortedCourses()
	require.Len(t, sorted, 3)
	assert.Equal(t, "CS101", sorted[0].Code)
	assert.Equal(t, "CS201", sorted[2].Code)
}

func TestBuildSnapshot_RejectsCycle(t *testing.T) {
	courses := []model.Course{
		mkCourse("A", 3, model.CourseCore, true),
		mkCourse("B", 3, model.CourseCore, true),
		mkCourse("C", 3, model.CourseCore, true),
	}
	prereqs := []model.CoursePrerequisite{
		edge("A", "B"),
		edge("B", "C"),
		edge("C", "A"),
	}

	_, err := BuildSnapshot(1403, courses, prereqs, nil, nil)
	require.Error(t, err)

	var cycle *util.CycleDetectedError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, 1403, cycle.EntryYear)
	assert.NotEmpty(t, cycle.From)
	assert.NotEmpty(t, cycle.To)
}

func TestBuildSnapshot_RejectsSelfEdge(t *testing.T) {
	courses := []model.Course{mkCourse("A", 3, model.CourseCore, true)}
	prereqs := []model.CoursePrerequisite{edge("A", "A")}

	_, err := BuildSnapshot(1403, courses, prereqs, nil, nil)
	var cycle *util.CycleDetectedError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, "A", cycle.From)
	assert.Equal(t, "A", cycle.To)
}

func TestBuildSnapshot_MutualCorequisitesAreLegal(t *testing.T) {
	courses := []model.Course{
		mkCourse("PHYS101", 3, model.CourseGeneral, true),
		mkCourse("PHYS101L", 1, model.CourseGeneral, true),
	}
	prereqs := []model.CoursePrerequisite{
		coreqEdge("PHYS101", "PHYS101L"),
		coreqEdge("PHYS101L", "PHYS101"),
	}

	_, err := BuildSnapshot(1403, courses, prereqs, nil, nil)
	assert.NoError(t, err)
}

func TestBuildSnapshot_RejectsUnknownEdgeAndDuplicateCode(t *testing.T) {
	t.Run("edge references unknown course", func(t *testing.T) {
		courses := []model.Course{mkCourse("A", 3, model.CourseCore, true)}
		_, err := BuildSnapshot(1403, courses, []model.CoursePrerequisite{edge("A", "GHOST")}, nil, nil)

		var verr *util.ValidationError
		require.True(t, errors.As(err, &verr))
	})

	t.Run("duplicate course code", func(t *testing.T) {
		courses := []model.Course{
			mkCourse("A", 3, model.CourseCore, true),
			mkCourse("A", 4, model.CourseCore, true),
		}
		_, err := BuildSnapshot(1403, courses, nil, nil, nil)

		var verr *util.ValidationError
		require.True(t, errors.As(err, &verr))
	})
}

func TestBuildSnapshot_Offerings(t *testing.T) {
	courses := []model.Course{
		mkCourse("CS101", 4, model.CourseFoundation, true),
		mkCourse("CS102", 4, model.CourseFoundation, true),
	}

	t.Run("offering for an unknown course is rejected", func(t *testing.T) {
		offerings := []model.CourseOffering{{CourseCode: "GHOST", EntryYear: 1403, Semester: 1}}
		_, err := BuildSnapshot(1403, courses, nil, nil, offerings)

		var verr *util.ValidationError
		require.True(t, errors.As(err, &verr))
	})

	t.Run("offered set is keyed by semester", func(t *testing.T) {
		offerings := []model.CourseOffering{
			{CourseCode: "CS101", EntryYear: 1403, Semester: 1},
			{CourseCode: "CS102", EntryYear: 1403, Semester: 2},
		}
		snap, err := BuildSnapshot(1403, courses, nil, nil, offerings)
		require.NoError(t, err)

		offered := snap.OfferedIn(1)
		require.NotNil(t, offered)
		assert.True(t, offered["CS101"])
		assert.False(t, offered["CS102"])
	})

	t.Run("a semester with no offering rows leaves the catalog open", func(t *testing.T) {
		offerings := []model.CourseOffering{{CourseCode: "CS101", EntryYear: 1403, Semester: 1}}
		snap, err := BuildSnapshot(1403, courses, nil, nil, offerings)
		require.NoError(t, err)

		assert.Nil(t, snap.OfferedIn(5))
	})

	t.Run("no offering data at all leaves every semester open", func(t *testing.T) {
		snap := buildSnap(t, courses, nil, nil)
		assert.Nil(t, snap.OfferedIn(1))
	})
}

func TestDependents(t *testing.T) {
	courses := []model.Course{
		mkCourse("CS101", 4, model.CourseFoundation, true),
		mkCourse("CS102", 4, model.CourseFoundation, true),
		mkCourse("CS201", 3, model.CourseCore, true),
		mkCourse("CS101L", 1, model.CourseFoundation, true),
	}
	prereqs := []model.CoursePrerequisite{
		edge("CS102", "CS101"),
		edge("CS201", "CS101"),
		coreqEdge("CS101L", "CS101"),
	}
	snap := buildSnap(t, courses, prereqs, nil)

	counts := snap.Dependents()
	assert.Equal(t, 2, counts["CS101"], "corequisite edges do not count")
	assert.Zero(t, counts["CS201"])
}

func TestFindCycle_Deterministic(t *testing.T) {
	// Two separate cycles; sorted roots mean the same edge is reported on
	// every run.
	edges := map[string][]model.CoursePrerequisite{
		"X": {edge("X", "Y")},
		"Y": {edge("Y", "X")},
		"A": {edge("A", "B")},
		"B": {edge("B", "A")},
	}

	from1, to1, found1 := findCycle(edges)
	require.True(t, found1)
	for i := 0; i < 10; i++ {
		from, to, found := findCycle(edges)
		require.True(t, found)
		assert.Equal(t, from1, from)
		assert.Equal(t, to1, to)
	}
}

func TestSnapshotFor_VersionSelection(t *testing.T) {
	svc := &CurriculumService{
		snapshots: map[int]*CurriculumSnapshot{
			1400: {EntryYear: 1400},
			1402: {EntryYear: 1402},
			1404: {EntryYear: 1404},
		},
		years: []int{1400, 1402, 1404},
	}

	tests := []struct {
		name      string
		entryYear int
		want      int
	}{
		{"exact match", 1402, 1402},
		{"between versions picks the older", 1403, 1402},
		{"newer than all picks the newest", 1410, 1404},
		{"older than all falls back to the oldest", 1398, 1400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := svc.SnapshotFor(tt.entryYear)
			require.NoError(t, err)
			assert.Equal(t, tt.want, snap.EntryYear)
		})
	}
}

func TestSnapshotFor_NoVersions(t *testing.T) {
	svc := &CurriculumService{snapshots: map[int]*CurriculumSnapshot{}}
	_, err := svc.SnapshotFor(1403)
	assert.ErrorIs(t, err, util.ErrCurriculumNotFound)
}
