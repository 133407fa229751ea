// Command main runs the database seeder for Chronicle.
package main

import (
	"context"
	"flag"
	"log"

	"chronicle/internal/config"
	"chronicle/internal/database"
	"chronicle/internal/repository"
	"chronicle/internal/seed"
	"chronicle/internal/service"

	"github.com/google/uuid"
)

func main() {
	count := flag.Int("count", 50, "Number of generated posts to create")
	authors := flag.Int("authors", 5, "Number of distinct authors for generated posts")
	fixtures := flag.String("fixtures", "", "YAML fixture file to load instead of generated posts")
	shouldClean := flag.Bool("clean", true, "Clean blog tables before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed for generated content (0 = random)")
	flag.Parse()

	log.Println("🌱 Blog Seeder")
	log.Println("==============")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	if *shouldClean {
		if err := seed.ClearAll(ctx, db); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	svc := service.NewBlogPostService(repository.NewBlogPostRepository(db), service.Options{
		MaxUploadSizeMB: cfg.MaxUploadSizeMB,
	})

	if *fixtures != "" {
		f, err := seed.LoadFixturesFile(*fixtures)
		if err != nil {
			log.Fatalf("❌ Reading fixtures failed: %v", err)
		}
		posts, err := seed.ApplyFixtures(ctx, svc, f)
		if err != nil {
			log.Fatalf("❌ Fixture seeding failed after %d posts: %v", len(posts), err)
		}
		log.Printf("✨ Loaded %d fixture posts from %s", len(posts), *fixtures)
		return
	}

	ids := make([]uuid.UUID, *authors)
	for i := range ids {
		ids[i] = uuid.New()
	}

	opts := seed.DefaultOptions()
	opts.Seed = *randSeed
	posts, err := seed.NewFactory(svc, opts).CreatePosts(ctx, *count, ids)
	if err != nil {
		log.Fatalf("❌ Post seeding failed after %d posts: %v", len(posts), err)
	}
	log.Printf("✨ Created %d posts across %d authors", len(posts), len(ids))
}
