package main

import (
	"context"
	"crewfinder/backend/internal/admin"
	"crewfinder/backend/internal/board"
	"crewfinder/backend/internal/config"
	"crewfinder/backend/internal/logging"
	"crewfinder/backend/internal/storage"
	"fmt"
	"os"
	"strings"
)

const usage = `Usage: admin <command> [args]

Commands:
  promote <user_id|email>       grant the admin role
  demote <user_id|email>        revoke the admin role
  delete-user <user_id|email>   delete a user with their posts, chats and messages
  delete-post <post_id>
  verify-game <game_id>
  unverify-game <game_id>
  delete-game <game_id>
  seed-games                    add the predefined game catalogue
  clear-chats                   delete every chat room and message
  clear-all                     delete every post, chat room and message`

func main() {
	cfg, err := config.LoadCLI()
	if err != nil {
		logging.L().Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Pretty: true, ServiceName: "crewfinder-admin"})

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.Database)
	if err != nil {
		logging.L().Fatal().Err(err).Msg("failed to connect database")
	}
	if err := storage.Migrate(db); err != nil {
		logging.L().Fatal().Err(err).Msg("migration failed")
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI
	if err := run(context.Background(), admin.NewService(storageSvc), board.NewService(storageSvc, nil), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, adm *admin.Service, boardSvc *board.Service, args []string) error {
	command := args[0]

	arg := func() (string, error) {
		if len(args) != 2 || strings.TrimSpace(args[1]) == "" {
			return "", fmt.Errorf("usage: admin %s <id>", command)
		}
		return args[1], nil
	}

	switch command {
	case "promote", "demote":
		ref, err := arg()
		if err != nil {
			return err
		}
		setRole := adm.Promote
		if command == "demote" {
			setRole = adm.Demote
		}
		user, err := setRole(ctx, ref)
		if err != nil {
			return err
		}
		fmt.Printf("User %s (%s) now has role %q.\n", user.ID, user.Email, user.Role)

	case "delete-user":
		ref, err := arg()
		if err != nil {
			return err
		}
		res, err := adm.DeleteUser(ctx, ref)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted user %s: %d posts, %d chats, %d messages.\n", ref, res.Posts, res.Rooms, res.Messages)

	case "delete-post":
		id, err := arg()
		if err != nil {
			return err
		}
		if err := adm.DeletePost(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Post %s has been deleted.\n", id)

	case "verify-game", "unverify-game", "delete-game":
		id, err := arg()
		if err != nil {
			return err
		}
		op := map[string]func(context.Context, string) error{
			"verify-game":   adm.VerifyGame,
			"unverify-game": adm.UnverifyGame,
			"delete-game":   adm.DeleteGame,
		}[command]
		if err := op(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Game %s: %s done.\n", id, command)

	case "seed-games":
		added, err := boardSvc.SeedGames(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Added %d games to the catalogue.\n", added)

	case "clear-chats":
		res, err := adm.ClearChats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d chats and %d messages.\n", res.Chats, res.Messages)

	case "clear-all":
		res, err := adm.ClearAll(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d posts, %d chats and %d messages (%d total).\n", res.Posts, res.Chats, res.Messages, res.Total)

	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
	return nil
}
