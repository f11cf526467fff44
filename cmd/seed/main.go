package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stemsi/courseware/internal/config"
	"github.com/stemsi/courseware/internal/database"
	"github.com/stemsi/courseware/internal/events"
	"github.com/stemsi/courseware/internal/logger"
	"github.com/stemsi/courseware/internal/model"
	"github.com/stemsi/courseware/internal/repository"
	"github.com/stemsi/courseware/internal/service"
	"github.com/stemsi/courseware/internal/worker"
)

type seedCourse struct {
	Title       string
	Description string
	Batches     []string
}

var courses = []seedCourse{
	{Title: "Fisika Dasar", Description: "Mekanika, gelombang dan termodinamika.", Batches: []string{"2026 Gelombang 1", "2026 Gelombang 2"}},
	{Title: "Kalkulus", Description: "Limit, turunan dan integral.", Batches: []string{"2026 Reguler"}},
	{Title: "Pemrograman Go", Description: "", Batches: []string{"Bootcamp Oktober"}},
}

var names = []string{
	"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
	"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
	"Hendra Gunawan", "Ika Sari", "Lukman Hakim", "Maya Septiana", "Nanda Pratama",
	"Oki Setiana", "Putri Dian", "Rafi Ahmad", "Toni Setiawan", "Wahyu Hidayat",
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	batchRepo := repository.NewBatchRepository(pool)
	publisher := events.NewRedisPublisher(rdb)
	courseService := service.NewCourseService(
		repository.NewCourseRepository(pool), batchRepo,
		service.NewRedisFolderCache(rdb, cfg.FolderCacheTTL), worker.NewPurgeQueue(rdb), log,
	)
	rosterService := service.NewRosterService(
		repository.NewRosterRepository(pool), repository.NewStudentRepository(pool), batchRepo, publisher, log,
	)

	fmt.Println("=== Seeding Courses, Batches and Students ===")

	// ─── Students ──────────────────────────────────────────────────────
	students := make([]*model.Student, 0, len(names))
	for _, name := range names {
		first, last, _ := strings.Cut(name, " ")
		email := strings.ToLower(first+"."+last) + "@example.com"

		student, err := rosterService.CreateStudent(ctx, model.CreateStudentRequest{FirstName: first, LastName: last, Email: email})
		if errors.Is(err, service.ErrStudentExists) {
			found, serr := rosterService.SearchStudents(ctx, email, 1)
			if serr != nil || len(found) == 0 {
				log.Fatal().Err(serr).Str("email", email).Msg("Failed to load existing student")
			}
			student, err = &found[0], nil
		}
		if err != nil {
			log.Fatal().Err(err).Str("email", email).Msg("Failed to create student")
		}
		students = append(students, student)
	}
	fmt.Printf("Students ready: %d\n", len(students))

	// ─── Courses and Batches ───────────────────────────────────────────
	existing, err := courseService.ListCourses(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list courses")
	}
	byTitle := make(map[string]model.Course, len(existing))
	for _, c := range existing {
		byTitle[c.Title] = c
	}

	enrolled, skipped, next := 0, 0, 0
	for _, sc := range courses {
		course, ok := byTitle[sc.Title]
		if !ok {
			created, err := courseService.CreateCourse(ctx, model.CourseRequest{Title: sc.Title, Description: sc.Description})
			if err != nil {
				log.Fatal().Err(err).Str("title", sc.Title).Msg("Failed to create course")
			}
			course = *created
			fmt.Printf("Created course %q (ID %d)\n", course.Title, course.ID)
		}

		batches, err := courseService.ListBatches(ctx, course.ID)
		if err != nil {
			log.Fatal().Err(err).Int64("course_id", course.ID).Msg("Failed to list batches")
		}

		for _, name := range sc.Batches {
			batch, found := findBatch(batches, name)
			if !found {
				created, err := courseService.CreateBatch(ctx, course.ID, model.CreateBatchRequest{Name: name})
				if err != nil {
					log.Fatal().Err(err).Str("batch", name).Msg("Failed to create batch")
				}
				batch = *created
				fmt.Printf("  Created batch %q (ID %d)\n", batch.Name, batch.ID)
			}

			// Five students per batch, rotating through the list.
			for i := 0; i < 5; i++ {
				student := students[next%len(students)]
				next++
				_, err := rosterService.Add(ctx, course.ID, batch.ID, model.AddMemberRequest{Email: student.Email})
				switch {
				case err == nil:
					enrolled++
				case errors.Is(err, service.ErrAlreadyMember):
					skipped++
				default:
					log.Fatal().Err(err).Str("email", student.Email).Msg("Failed to enroll student")
				}
			}
		}
	}

	fmt.Printf("\nSeed completed! %d enrollments added, %d already present.\n", enrolled, skipped)
}

func findBatch(batches []model.Batch, name string) (model.Batch, bool) {
	for _, b := range batches {
		if b.Name == name {
			return b, true
		}
	}
	return model.Batch{}, false
}
