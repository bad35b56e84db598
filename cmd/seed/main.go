// Command seed populates PenLoft storage with the built-in fixture and
// optional generated demo data.
package main

import (
	"context"
	"flag"
	"log"

	"penloft/internal/bootstrap"
	"penloft/internal/config"
	"penloft/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 0, "Number of generated users to create")
	numPosts := flag.Int("posts", 0, "Number of generated posts to create")
	fakerSeed := flag.Int64("seed", 0, "Random seed for generated data (0 picks one)")
	builtins := flag.Bool("builtins", true, "Insert the built-in users and posts")
	flag.Parse()

	log.Println("PenLoft seeder")
	log.Printf("Target: builtins=%v, %d users, %d posts\n", *builtins, *numUsers, *numPosts)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.StorageDriver == config.StorageMemory {
		log.Println("STORAGE_DRIVER=memory: seeded data is discarded when this command exits")
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipGenerator: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() {
		if err := rt.Close(ctx); err != nil {
			log.Printf("Runtime close error: %v", err)
		}
	}()

	if *builtins {
		res, err := seed.Builtins(ctx, rt.Users, rt.Posts)
		if err != nil {
			log.Printf("Built-in seeding failed: %v", err)
			return
		}
		log.Printf("Built-ins: %d users and %d posts created\n", res.UsersCreated, res.PostsCreated)
	}

	if *numUsers == 0 && *numPosts == 0 {
		return
	}

	f := seed.NewFactory(rt.Users, rt.Posts, *fakerSeed)
	authors, err := f.Users(ctx, *numUsers)
	if err != nil {
		log.Printf("User generation failed: %v", err)
		return
	}
	if len(authors) == 0 {
		authors, err = rt.Users.GetUsers(ctx)
		if err != nil {
			log.Printf("Loading existing authors failed: %v", err)
			return
		}
	}
	if *numPosts > 0 {
		posts, err := f.Posts(ctx, authors, *numPosts)
		if err != nil {
			log.Printf("Post generation failed: %v", err)
			return
		}
		log.Printf("Generated %d users and %d posts\n", len(authors), len(posts))
	}
	log.Println("All done.")
}
