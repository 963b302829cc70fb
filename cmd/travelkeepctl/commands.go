package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"travelkeep/internal/app"
	"travelkeep/internal/audit"
	jwttoken "travelkeep/internal/jwt_token"
	"travelkeep/internal/profile/service"
	id "travelkeep/pkg/domain"
)

type builder func(ctx context.Context) (*app.App, error)

func newRootCmd(build builder) *cobra.Command {
	root := &cobra.Command{
		Use:           "travelkeepctl",
		Short:         "Operate the travelkeep data service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrateCmd(build))
	root.AddCommand(conflictsCmd(build))
	root.AddCommand(auditCmd(build))
	root.AddCommand(cacheStatsCmd(build))
	root.AddCommand(tokenCmd(build))
	return root
}

// withApp builds the app for one command run and closes it afterwards.
func withApp(cmd *cobra.Command, build builder, fn func(ctx context.Context, a *app.App) (any, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := build(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	out, err := fn(ctx, a)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func userFlag(cmd *cobra.Command) (id.UserID, error) {
	raw, _ := cmd.Flags().GetString("user")
	return id.ParseUserID(raw)
}

func migrateCmd(build builder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Import a user's legacy data into the storage adapter",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userFlag(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, build, func(ctx context.Context, a *app.App) (any, error) {
				return a.Service.MigrateFromLegacy(ctx, userID)
			})
		},
	}
	cmd.Flags().StringP("user", "u", "", "User id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func conflictsCmd(build builder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Compare adapter and legacy data for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userFlag(cmd)
			if err != nil {
				return err
			}
			resolve, _ := cmd.Flags().GetBool("resolve")
			return withApp(cmd, build, func(ctx context.Context, a *app.App) (any, error) {
				if resolve {
					return a.Service.ResolveDataConflicts(ctx, userID)
				}
				return a.Service.DetectDataConflicts(ctx, userID)
			})
		},
	}
	cmd.Flags().StringP("user", "u", "", "User id")
	cmd.Flags().Bool("resolve", false, "Keep adapter values and refresh cached state")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func auditCmd(build builder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect snapshot audit trails",
	}

	verify := &cobra.Command{
		Use:   "verify [snapshot-id]",
		Short: "Cross-check the adapter trail against the file tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshotID, err := id.ParseSnapshotID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, build, func(ctx context.Context, a *app.App) (any, error) {
				return a.Audit.VerifyIntegrity(ctx, snapshotID)
			})
		},
	}

	export := &cobra.Command{
		Use:   "export [snapshot-id]",
		Short: "Write the trail to exports/",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshotID, err := id.ParseSnapshotID(args[0])
			if err != nil {
				return err
			}
			raw, _ := cmd.Flags().GetString("format")
			format, err := audit.ParseFormat(raw)
			if err != nil {
				return err
			}
			return withApp(cmd, build, func(ctx context.Context, a *app.App) (any, error) {
				return a.Audit.ExportAuditLog(ctx, snapshotID, format)
			})
		},
	}
	export.Flags().StringP("format", "f", "json", "Export format (json, csv)")

	cmd.AddCommand(verify, export)
	return cmd
}

func cacheStatsCmd(build builder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache-stats",
		Short: "Print cache counters, optionally after loading a user's data",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("user")
			return withApp(cmd, build, func(ctx context.Context, a *app.App) (any, error) {
				if raw != "" {
					userID, err := id.ParseUserID(raw)
					if err != nil {
						return nil, err
					}
					if _, err := a.Service.GetAllUserData(ctx, userID, service.GetOptions{}); err != nil {
						return nil, err
					}
				}
				return a.Service.CacheStats(), nil
			})
		},
	}
	cmd.Flags().StringP("user", "u", "", "Warm the cache for this user first")
	return cmd
}

// tokenCmd signs a development bearer token with the configured key.
func tokenCmd(build builder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userFlag(cmd)
			if err != nil {
				return err
			}
			ttl, _ := cmd.Flags().GetDuration("ttl")
			return withApp(cmd, build, func(ctx context.Context, a *app.App) (any, error) {
				svc := jwttoken.NewJWTService(a.Config.Server.JWTSigningKey, a.Config.Server.JWTIssuer)
				token, err := svc.GenerateAccessToken(userID, ttl)
				if err != nil {
					return nil, err
				}
				return map[string]string{"access_token": token, "token_type": "Bearer"}, nil
			})
		},
	}
	cmd.Flags().StringP("user", "u", "", "User id")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
