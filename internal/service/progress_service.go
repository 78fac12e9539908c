package service

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-go-api/internal/models"
	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
)

type progressRepository interface {
	FindLessonProgress(ctx context.Context, studentID, lessonID string) (*models.LessonProgress, error)
	UpsertLessonProgress(ctx context.Context, progress *models.LessonProgress) error
	CompletionByLessonIDs(ctx context.Context, studentID string, lessonIDs []string) (map[string]bool, error)
	UpsertChapterProgress(ctx context.Context, progress *models.ChapterProgress) error
	UpsertSubjectProgress(ctx context.Context, progress *models.SubjectProgress) error
	FindChapterProgress(ctx context.Context, studentID, chapterID string) (*models.ChapterProgress, error)
	FindSubjectProgress(ctx context.Context, studentID, subjectID string) (*models.SubjectProgress, error)
	ListChapterProgressBySubject(ctx context.Context, studentID, subjectID string) (map[string]models.ChapterProgress, error)
}

type courseReader interface {
	FindLesson(ctx context.Context, lessonID string) (*models.Lesson, error)
	FindChapter(ctx context.Context, chapterID string) (*models.Chapter, error)
	ListLessonsByChapter(ctx context.Context, chapterID string) ([]models.Lesson, error)
	ListChaptersBySubject(ctx context.Context, subjectID string) ([]models.Chapter, error)
	ListLessonsBySubject(ctx context.Context, subjectID string) ([]models.Lesson, error)
}

// RecordWatchRequest is a single video watch tick.
type RecordWatchRequest struct {
	StudentID       string `json:"student_id" validate:"required"`
	LessonID        string `json:"lesson_id" validate:"required"`
	WatchedSeconds  int    `json:"watched_seconds" validate:"gte=0"`
	DurationSeconds int    `json:"duration_seconds" validate:"gte=0"`
}

// ProgressService records watch events, maintains the chapter/subject
// rollups and derives sequential lock state.
type ProgressService struct {
	progress            progressRepository
	courses             courseReader
	validator           *validator.Validate
	logger              *zap.Logger
	completionThreshold float64
}

// NewProgressService constructs the service. threshold is the
// watched/duration ratio at which a lesson counts as completed.
func NewProgressService(progress progressRepository, courses courseReader, threshold float64, validate *validator.Validate, logger *zap.Logger) *ProgressService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if threshold <= 0 {
		threshold = 0.30
	}
	return &ProgressService{
		progress:            progress,
		courses:             courses,
		validator:           validate,
		logger:              logger,
		completionThreshold: threshold,
	}
}

// RecordWatch processes a watch tick. Re-watching a completed lesson is a
// no-op that reports the existing state, so overlapping ticks and replays
// never regress completion. A tick that crosses the completion threshold
// marks the lesson completed and synchronously recomputes the chapter and
// subject rollups before answering whether the next lesson unlocked.
func (s *ProgressService) RecordWatch(ctx context.Context, req RecordWatchRequest) (*models.WatchResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid watch payload")
	}
	lesson, err := s.courses.FindLesson(ctx, req.LessonID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}

	existing, err := s.progress.FindLessonProgress(ctx, req.StudentID, req.LessonID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson progress")
	}
	if existing != nil && existing.IsCompleted {
		allowNext, err := s.nextLessonUnlocked(ctx, req.StudentID, lesson)
		if err != nil {
			return nil, err
		}
		return &models.WatchResult{Completed: true, AllowNext: allowNext}, nil
	}

	completed := req.DurationSeconds > 0 &&
		float64(req.WatchedSeconds)/float64(req.DurationSeconds) >= s.completionThreshold
	progress := &models.LessonProgress{
		StudentID:      req.StudentID,
		LessonID:       req.LessonID,
		WatchedSeconds: req.WatchedSeconds,
		IsCompleted:    completed,
	}
	if completed {
		now := time.Now().UTC()
		progress.CompletedAt = &now
	}
	if err := s.progress.UpsertLessonProgress(ctx, progress); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save lesson progress")
	}

	allowNext := false
	if completed {
		chapter, err := s.courses.FindChapter(ctx, lesson.ChapterID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chapter")
		}
		if _, err := s.RollUpChapter(ctx, req.StudentID, chapter.ID); err != nil {
			return nil, err
		}
		if _, err := s.RollUpSubject(ctx, req.StudentID, chapter.SubjectID); err != nil {
			return nil, err
		}
		allowNext, err = s.nextLessonUnlocked(ctx, req.StudentID, lesson)
		if err != nil {
			return nil, err
		}
	}

	return &models.WatchResult{Completed: completed, AllowNext: allowNext}, nil
}

// nextLessonUnlocked reports whether the lesson after the given one is
// unlocked under the recomputed lock map, so a watch against a lesson the
// student reached out of order never claims to have opened its successor.
// For the last lesson of a chapter the successor is the next chapter,
// which opens once every lesson in this one is complete.
func (s *ProgressService) nextLessonUnlocked(ctx context.Context, studentID string, lesson *models.Lesson) (bool, error) {
	chapter, err := s.courses.FindChapter(ctx, lesson.ChapterID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chapter")
	}
	accessible, err := s.chapterAccessible(ctx, studentID, chapter)
	if err != nil {
		return false, err
	}
	if !accessible {
		return false, nil
	}
	lessons, err := s.courses.ListLessonsByChapter(ctx, chapter.ID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list chapter lessons")
	}
	ids := lessonIDs(lessons)
	completed, err := s.progress.CompletionByLessonIDs(ctx, studentID, ids)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson completion")
	}
	locks := ComputeLocks(ids, completed)
	for i, id := range ids {
		if id != lesson.ID {
			continue
		}
		if i+1 < len(ids) {
			return !locks[ids[i+1]], nil
		}
		return AllCompleted(ids, completed), nil
	}
	return false, nil
}

// RollUpChapter recomputes a chapter rollup from the full set of its
// lessons. A chapter with no lessons rolls up to 0% and not completed,
// never a division by zero.
func (s *ProgressService) RollUpChapter(ctx context.Context, studentID, chapterID string) (*models.ChapterProgress, error) {
	lessons, err := s.courses.ListLessonsByChapter(ctx, chapterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list chapter lessons")
	}
	percent, allDone, err := s.completionPercent(ctx, studentID, lessonIDs(lessons))
	if err != nil {
		return nil, err
	}
	rollup := &models.ChapterProgress{
		StudentID:   studentID,
		ChapterID:   chapterID,
		Progress:    percent,
		IsCompleted: allDone,
	}
	if allDone {
		now := time.Now().UTC()
		rollup.CompletedAt = &now
	}
	if err := s.progress.UpsertChapterProgress(ctx, rollup); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save chapter progress")
	}
	return rollup, nil
}

// RollUpSubject recomputes a subject rollup over all lessons under the
// subject's chapters, with the same zero-lesson policy as chapters.
func (s *ProgressService) RollUpSubject(ctx context.Context, studentID, subjectID string) (*models.SubjectProgress, error) {
	lessons, err := s.courses.ListLessonsBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject lessons")
	}
	percent, allDone, err := s.completionPercent(ctx, studentID, lessonIDs(lessons))
	if err != nil {
		return nil, err
	}
	rollup := &models.SubjectProgress{
		StudentID:   studentID,
		SubjectID:   subjectID,
		Progress:    percent,
		IsCompleted: allDone,
	}
	if allDone {
		now := time.Now().UTC()
		rollup.CompletedAt = &now
	}
	if err := s.progress.UpsertSubjectProgress(ctx, rollup); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save subject progress")
	}
	return rollup, nil
}

// GetLessonLocks derives the lock map for a chapter's lessons. When the
// chapter itself is inaccessible (an earlier chapter is incomplete) every
// lesson in it is locked.
func (s *ProgressService) GetLessonLocks(ctx context.Context, studentID, chapterID string) ([]models.LessonLock, error) {
	chapter, err := s.courses.FindChapter(ctx, chapterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "chapter not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chapter")
	}
	lessons, err := s.courses.ListLessonsByChapter(ctx, chapterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list chapter lessons")
	}
	ids := lessonIDs(lessons)
	completed, err := s.progress.CompletionByLessonIDs(ctx, studentID, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson completion")
	}

	accessible, err := s.chapterAccessible(ctx, studentID, chapter)
	if err != nil {
		return nil, err
	}
	locks := ComputeLocks(ids, completed)

	result := make([]models.LessonLock, 0, len(lessons))
	for _, lesson := range lessons {
		locked := locks[lesson.ID]
		if !accessible {
			locked = true
		}
		result = append(result, models.LessonLock{
			LessonID:    lesson.ID,
			Title:       lesson.Title,
			Position:    lesson.Position,
			IsCompleted: completed[lesson.ID],
			Locked:      locked,
		})
	}
	return result, nil
}

// GetSubjectOverview returns the subject rollup with per-chapter progress
// and chapter-level lock state.
func (s *ProgressService) GetSubjectOverview(ctx context.Context, studentID, subjectID string) (*models.SubjectProgressOverview, error) {
	chapters, err := s.courses.ListChaptersBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject chapters")
	}
	rollups, err := s.progress.ListChapterProgressBySubject(ctx, studentID, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chapter progress")
	}

	overview := &models.SubjectProgressOverview{SubjectID: subjectID}
	subjectRollup, err := s.progress.FindSubjectProgress(ctx, studentID, subjectID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject progress")
	}
	if subjectRollup != nil {
		overview.Progress = subjectRollup.Progress
		overview.IsCompleted = subjectRollup.IsCompleted
	}

	locked := false
	for i, chapter := range chapters {
		if i > 0 {
			prevDone, err := s.chapterCompleted(ctx, studentID, chapters[i-1].ID)
			if err != nil {
				return nil, err
			}
			locked = locked || !prevDone
		}
		entry := models.ChapterOverview{
			ChapterID: chapter.ID,
			Title:     chapter.Title,
			Position:  chapter.Position,
			Locked:    locked,
		}
		if rollup, ok := rollups[chapter.ID]; ok {
			entry.Progress = rollup.Progress
			entry.IsCompleted = rollup.IsCompleted
		}
		overview.Chapters = append(overview.Chapters, entry)
	}
	return overview, nil
}

// GetChapterProgress returns the stored rollup, or a zero-progress view
// when no lesson has been watched yet; a new student is an expected state,
// not an error.
func (s *ProgressService) GetChapterProgress(ctx context.Context, studentID, chapterID string) (*models.ChapterProgress, error) {
	rollup, err := s.progress.FindChapterProgress(ctx, studentID, chapterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.ChapterProgress{StudentID: studentID, ChapterID: chapterID}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chapter progress")
	}
	return rollup, nil
}

// GetSubjectProgress returns the stored subject rollup with the same
// zero-progress fallback as chapters.
func (s *ProgressService) GetSubjectProgress(ctx context.Context, studentID, subjectID string) (*models.SubjectProgress, error) {
	rollup, err := s.progress.FindSubjectProgress(ctx, studentID, subjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.SubjectProgress{StudentID: studentID, SubjectID: subjectID}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject progress")
	}
	return rollup, nil
}

// completionPercent computes completed/total*100 rounded to 2 decimals
// over the given lessons. An empty lesson set yields (0, false).
func (s *ProgressService) completionPercent(ctx context.Context, studentID string, ids []string) (float64, bool, error) {
	if len(ids) == 0 {
		return 0, false, nil
	}
	completed, err := s.progress.CompletionByLessonIDs(ctx, studentID, ids)
	if err != nil {
		return 0, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson completion")
	}
	done := 0
	for _, id := range ids {
		if completed[id] {
			done++
		}
	}
	percent := math.Round(float64(done)/float64(len(ids))*100*100) / 100
	return percent, done == len(ids), nil
}

// chapterAccessible reports whether every chapter before the given one is
// fully completed. The first chapter is always accessible.
func (s *ProgressService) chapterAccessible(ctx context.Context, studentID string, chapter *models.Chapter) (bool, error) {
	chapters, err := s.courses.ListChaptersBySubject(ctx, chapter.SubjectID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject chapters")
	}
	for _, previous := range chapters {
		if previous.ID == chapter.ID {
			break
		}
		done, err := s.chapterCompleted(ctx, studentID, previous.ID)
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}
	}
	return true, nil
}

// chapterCompleted checks completion of every lesson in a chapter against
// the live lesson progress rather than the stored rollup, so a rollup that
// has not been recomputed yet cannot wedge unlocking. A chapter without
// lessons never blocks its successor.
func (s *ProgressService) chapterCompleted(ctx context.Context, studentID, chapterID string) (bool, error) {
	lessons, err := s.courses.ListLessonsByChapter(ctx, chapterID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list chapter lessons")
	}
	ids := lessonIDs(lessons)
	if len(ids) == 0 {
		return true, nil
	}
	completed, err := s.progress.CompletionByLessonIDs(ctx, studentID, ids)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson completion")
	}
	return AllCompleted(ids, completed), nil
}

func lessonIDs(lessons []models.Lesson) []string {
	ids := make([]string, len(lessons))
	for i, lesson := range lessons {
		ids[i] = lesson.ID
	}
	return ids
}
