// Command seed fills a development database with demo data.
package main

import (
	"flag"
	"log"

	"agora/internal/bootstrap"
	"agora/internal/config"
	"agora/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 60, "Number of posts to create")
	numBooks := flag.Int("books", 30, "Number of books to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed, 0 for random")
	flag.Parse()

	log.Printf("Seeding: %d users, %d posts, %d books, clean=%v", *numUsers, *numPosts, *numBooks, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SkipDevAdmin: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	res, err := seed.Seed(db, seed.Options{
		Users:    *numUsers,
		Posts:    *numPosts,
		Books:    *numBooks,
		Clean:    *shouldClean,
		RandSeed: *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d posts, %d comments, %d likes, %d follows, %d books",
		res.Users, res.Posts, res.Comments, res.Likes, res.Follows, res.Books)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
