package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"slot-booking/internal/dto/request"
	"slot-booking/internal/usecase"

	"github.com/spf13/cobra"
)

func newResourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resource",
		Short: "Manage bookable resources",
	}
	cmd.AddCommand(newResourceAddCmd())
	cmd.AddCommand(newResourceListCmd())
	return cmd
}

func newResourceAddCmd() *cobra.Command {
	var code, name string

	c := &cobra.Command{
		Use:   "add",
		Short: "Add an active resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rt, err := bootstrap(ctx, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			svc := usecase.NewService(rt.repo, rt.config, nil, nil, time.Now, rt.logger)
			resource, err := svc.Resource.CreateResource(ctx, &request.CreateResourceRequest{Code: code, Name: name})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "created resource id=%s code=%s\n", resource.ID, resource.Code)
			return nil
		},
	}

	c.Flags().StringVar(&code, "code", "", "short unique code, e.g. BAY1")
	c.Flags().StringVar(&name, "name", "", "display name")
	_ = c.MarkFlagRequired("code")
	_ = c.MarkFlagRequired("name")
	return c
}

func newResourceListCmd() *cobra.Command {
	var activeOnly bool

	c := &cobra.Command{
		Use:   "list",
		Short: "List resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rt, err := bootstrap(ctx, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			svc := usecase.NewService(rt.repo, rt.config, nil, nil, time.Now, rt.logger)
			resources, err := svc.Resource.ListResources(ctx, activeOnly)
			if err != nil {
				return err
			}
			for _, r := range resources {
				fmt.Fprintf(os.Stdout, "id=%s code=%s name=%q active=%t\n", r.ID, r.Code, r.Name, r.IsActive)
			}
			return nil
		},
	}
	c.Flags().BoolVar(&activeOnly, "active", false, "only active resources")
	return c
}
