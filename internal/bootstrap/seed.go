package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nbinstitution/lms-client-go/internal/features/course"
	"github.com/nbinstitution/lms-client-go/internal/features/user"
)

const (
	defaultAdminEmail    = "admin@nbinstitution.com"
	defaultAdminPassword = "admin123"
	defaultAdminName     = "Admin User"

	defaultDemoEmail    = "user@example.com"
	defaultDemoPassword = "user123"
	defaultDemoName     = "Demo User"
)

// EnsureDefaultAccounts writes the default admin and demo accounts into an
// empty directory. A directory that already exists is left untouched, so
// registered accounts survive restarts.
func EnsureDefaultAccounts(ctx context.Context, directory *user.Directory, logger *slog.Logger) error {
	if directory.Exists(ctx) {
		logger.Debug("user directory already seeded")
		return nil
	}

	adminHash, err := user.HashPassword(defaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	demoHash, err := user.HashPassword(defaultDemoPassword)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	accounts := []user.Account{
		{ID: "1", Email: defaultAdminEmail, PasswordHash: adminHash, Name: defaultAdminName, Role: user.RoleAdmin},
		{ID: "2", Email: defaultDemoEmail, PasswordHash: demoHash, Name: defaultDemoName, Role: user.RoleUser},
	}
	if err := directory.Replace(ctx, accounts); err != nil {
		return fmt.Errorf("seed user directory: %w", err)
	}

	logger.Info("default accounts created",
		slog.String("admin", defaultAdminEmail),
		slog.String("demo", defaultDemoEmail),
	)
	return nil
}

// SeedDemoCatalog installs the demonstration courses and the demo user's
// half-finished progress record. It only runs against an empty catalog.
func SeedDemoCatalog(store *course.Store, logger *slog.Logger) {
	if store.CourseCount() > 0 {
		return
	}

	for _, c := range demoCourses() {
		store.SeedCourse(c)
	}
	store.SeedProgress(course.UserProgress{
		UserID:           "2",
		CourseID:         "1",
		CompletedLessons: []string{"1-1"},
		LastAccessed:     time.Date(2023, 7, 20, 15, 45, 0, 0, time.UTC),
		PercentComplete:  50,
	})

	logger.Info("demo catalog seeded",
		slog.Int("courses", store.CourseCount()),
		slog.Int("progress_records", store.ProgressCount()),
	)
}

func demoCourses() []course.Course {
	return []course.Course{
		{
			ID:          "1",
			Title:       "Introduction to Digital Design",
			Description: "Learn the basics of digital design, including color theory, typography, and layout principles.",
			Instructor:  "Jane Smith",
			Thumbnail:   "https://images.unsplash.com/photo-1593642632823-8f785ba67e45?auto=format&fit=crop&q=80&w=2592&h=1728",
			Category:    "Design",
			Price:       decimal.NewFromFloat(49.99),
			Published:   true,
			CreatedAt:   time.Date(2023, 5, 15, 10, 30, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2023, 6, 10, 14, 20, 0, 0, time.UTC),
			Lessons: []course.Lesson{
				{
					ID:          "1-1",
					Title:       "Understanding Color Theory",
					Description: "Learn how colors interact and how to create effective color schemes.",
					Type:        course.LessonTypeVideo,
					Content:     "https://example.com/videos/color-theory.mp4",
					Duration:    25,
					Order:       1,
				},
				{
					ID:          "1-2",
					Title:       "Typography Fundamentals",
					Description: "Explore the basics of typography and how to choose fonts for your designs.",
					Type:        course.LessonTypeText,
					Content:     "Typography is the art and technique of arranging type to make written language legible, readable, and appealing when displayed...",
					Order:       2,
				},
			},
		},
		{
			ID:          "2",
			Title:       "Advanced Web Development",
			Description: "Master modern web development techniques with React, Node.js, and cloud services.",
			Instructor:  "David Johnson",
			Thumbnail:   "https://images.unsplash.com/photo-1547658719-da2b51169166?auto=format&fit=crop&q=80&w=2664&h=1512",
			Category:    "Programming",
			Price:       decimal.NewFromFloat(79.99),
			Published:   true,
			CreatedAt:   time.Date(2023, 4, 20, 9, 15, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2023, 6, 5, 11, 45, 0, 0, time.UTC),
			Lessons: []course.Lesson{
				{
					ID:          "2-1",
					Title:       "React Component Architecture",
					Description: "Learn to structure React applications with clean component architecture.",
					Type:        course.LessonTypeVideo,
					Content:     "https://example.com/videos/react-architecture.mp4",
					Duration:    35,
					Order:       1,
				},
				{
					ID:          "2-2",
					Title:       "State Management with Redux",
					Description: "Master global state management with Redux and React-Redux.",
					Type:        course.LessonTypePDF,
					Content:     "https://example.com/pdfs/redux-guide.pdf",
					Order:       2,
				},
			},
		},
	}
}
