// Command main runs the database seeder for Yatube.
package main

import (
	"flag"
	"log"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/seed"
)

func main() {
	fixtures := flag.String("groups", "fixtures/groups.yml", "YAML file with the groups to load")
	numUsers := flag.Int("users", 20, "Number of demo users to create, 0 to load groups only")
	postsPerUser := flag.Int("posts", 15, "Number of posts per demo user")
	followRatio := flag.Float64("follow-ratio", 0.2, "Chance that a demo user follows another")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed, 0 for a time-based one")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	s := seed.NewSeeder(db, *randSeed)
	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	items, err := seed.LoadGroups(*fixtures)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	groups, err := seed.Groups(db, items)
	if err != nil {
		log.Fatalf("❌ Group seeding failed: %v", err)
	}
	log.Printf("✓ %d groups loaded from %s", len(groups), *fixtures)

	if *numUsers > 0 {
		if err := s.Run(groups, seed.Options{
			NumUsers:     *numUsers,
			PostsPerUser: *postsPerUser,
			FollowRatio:  *followRatio,
		}); err != nil {
			log.Fatalf("❌ Seeding failed: %v", err)
		}
		log.Printf("📧 All demo users have the password: %s", seed.DefaultPassword)
	}

	log.Println("✨ All done!")
}
