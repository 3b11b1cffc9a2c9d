package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"holdingboard/internal/app"
	"holdingboard/internal/config"
	"holdingboard/internal/db"
	"holdingboard/internal/docspace"
	"holdingboard/internal/domain"
	"holdingboard/internal/engine"
	"holdingboard/internal/engine/session"
	"holdingboard/internal/filestore"
	"holdingboard/internal/migrate"
	"holdingboard/internal/repo"
	"holdingboard/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "hb",
	Short: "Holding Board CLI",
	Long: `Holding Board is the operating dashboard for a corporate group.
It tracks portfolio companies, their project portfolios and phases, the
providers (internal squads and external partners) doing the work, board-level
task delegation, governance meetings with agendas and decisions, the R&D
thesis pipeline, and regulatory compliance per company. State lives in a
.holdingboard workspace database; group settings are imported from
holdingboard.yml into the DB.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("HB")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor", "local@holdingboard", "actor email")
	rootCmd.PersistentFlags().String("group", "", "group id (overrides stored settings)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor", rootCmd.PersistentFlags().Lookup("actor"))
	_ = viper.BindPFlag("group", rootCmd.PersistentFlags().Lookup("group"))
}

func registerCommands() {
	rootCmd.AddCommand(companyCmd())
	rootCmd.AddCommand(providerCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(boardCmd())
	rootCmd.AddCommand(meetingCmd())
	rootCmd.AddCommand(personalCmd())
	rootCmd.AddCommand(thesisCmd())
	rootCmd.AddCommand(regdocCmd())
	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func actorEmail() string {
	return viper.GetString("actor")
}

// --- company ---

func companyCmd() *cobra.Command {
	c := &cobra.Command{Use: "company", Short: "Manage portfolio companies"}
	c.AddCommand(companyCreateCmd())
	c.AddCommand(companyListCmd())
	c.AddCommand(companyShowCmd())
	c.AddCommand(companyUpdateCmd())
	c.AddCommand(companyDeleteCmd())
	c.AddCommand(companyComplianceCmd())
	return c
}

func companyCreateCmd() *cobra.Command {
	var name, sector string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create company",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.CreateCompany(ctx, name, sector, actorEmail())
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "company name")
	cmd.Flags().StringVar(&sector, "sector", "", "sector")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func companyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListCompanies(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Sector"})
				for _, c := range items {
					tw.AppendRow(table.Row{c.ID, c.Name, c.Sector})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func companyShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.Repo.GetCompany(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	return cmd
}

func companyUpdateCmd() *cobra.Command {
	var name, sector string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var namePtr, sectorPtr *string
			if cmd.Flags().Changed("name") {
				namePtr = &name
			}
			if cmd.Flags().Changed("sector") {
				sectorPtr = &sector
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.UpdateCompany(ctx, args[0], namePtr, sectorPtr, actorEmail())
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "company name")
	cmd.Flags().StringVar(&sector, "sector", "", "sector")
	return cmd
}

func companyDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteCompany(ctx, args[0], actorEmail())
			})
		},
	}
	return cmd
}

func companyComplianceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compliance <id>",
		Short: "Show compliance status per configured category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				summary, err := e.ComplianceStatus(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(summary)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Category", "Status", "Staleness", "Expiration"})
				for _, item := range summary.Items {
					exp := ""
					if item.Expiration != nil {
						exp = *item.Expiration
					}
					tw.AppendRow(table.Row{item.Category, item.Status, item.Staleness, exp})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

// --- provider ---

func providerCmd() *cobra.Command {
	p := &cobra.Command{
		Use:   "provider",
		Short: "Manage providers",
		Long:  "Providers do the actual work: internal squads have a fixed number of capacity slots, external partners flex. 'provider load' shows occupancy against those slots.",
	}
	p.AddCommand(providerCreateCmd())
	p.AddCommand(providerListCmd())
	p.AddCommand(providerUpdateCmd())
	p.AddCommand(providerDeleteCmd())
	p.AddCommand(providerLoadCmd())
	return p
}

func providerCreateCmd() *cobra.Command {
	var name, kind string
	var slots int
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.CreateProvider(ctx, name, kind, slots, actorEmail())
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "provider name")
	cmd.Flags().StringVar(&kind, "kind", "internal_squad", "internal_squad or external_partner")
	cmd.Flags().IntVar(&slots, "capacity-slots", 0, "capacity slots (internal squads)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func providerListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListProviders(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func providerUpdateCmd() *cobra.Command {
	var name string
	var slots int
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var namePtr *string
			var slotsPtr *int
			if cmd.Flags().Changed("name") {
				namePtr = &name
			}
			if cmd.Flags().Changed("capacity-slots") {
				slotsPtr = &slots
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.UpdateProvider(ctx, args[0], namePtr, slotsPtr, actorEmail())
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "provider name")
	cmd.Flags().IntVar(&slots, "capacity-slots", 0, "capacity slots")
	return cmd
}

func providerDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteProvider(ctx, args[0], actorEmail())
			})
		},
	}
	return cmd
}

func providerLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Show capacity load per provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				providers, err := e.Repo.ListProviders(ctx)
				if err != nil {
					return err
				}
				projects, err := e.Repo.ListProjects(ctx, repo.ProjectFilters{})
				if err != nil {
					return err
				}
				tasks, err := e.Repo.ListTasks(ctx, repo.TaskFilters{})
				if err != nil {
					return err
				}
				loads := make([]engine.ProviderLoad, 0, len(providers))
				for _, p := range providers {
					loads = append(loads, engine.ComputeProviderLoad(p, projects, tasks))
				}
				if viper.GetBool("json") {
					return printJSON(loads)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Provider", "Occupied", "Free", "Flex", "Overloaded"})
				byID := map[string]domain.Provider{}
				for _, p := range providers {
					byID[p.ID] = p
				}
				for _, l := range loads {
					name := l.ProviderID
					if p, ok := byID[l.ProviderID]; ok {
						name = p.Name
					}
					free := fmt.Sprintf("%d", l.Free)
					if l.Flex {
						free = "∞"
					}
					tw.AppendRow(table.Row{name, l.Occupied, free, l.Flex, l.Overloaded})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

// --- project ---

func projectCmd() *cobra.Command {
	p := &cobra.Command{
		Use:   "project",
		Short: "Manage projects and phases",
		Long:  "Projects belong to a company and may have phases (child projects). Completing the last open phase does not close the parent automatically; use task completion rollups or update the status directly.",
	}
	p.AddCommand(projectCreateCmd())
	p.AddCommand(projectListCmd())
	p.AddCommand(projectShowCmd())
	p.AddCommand(projectUpdateCmd())
	p.AddCommand(projectDeleteCmd())
	p.AddCommand(projectProgressCmd())
	return p
}

func projectCreateCmd() *cobra.Command {
	var opts engine.ProjectCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create project or phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorEmail = actorEmail()
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.CreateProject(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&opts.CompanyID, "company", "", "company id")
	cmd.Flags().StringVar(&opts.Name, "name", "", "project name")
	cmd.Flags().StringVar(&opts.ParentID, "parent", "", "parent project id (makes this a phase)")
	cmd.Flags().StringVar(&opts.ProviderID, "provider", "", "provider id")
	cmd.Flags().StringVar(&opts.Status, "status", "", "ON_TRACK, DELAYED, COMPLETED or ARCHIVED")
	cmd.Flags().Float64Var(&opts.Investment, "investment", 0, "total investment")
	cmd.Flags().Float64Var(&opts.MonthlyCost, "monthly-cost", 0, "monthly cost")
	cmd.Flags().StringVar(&opts.ExternalDocID, "doc-id", "", "external documentation page id")
	cmd.Flags().StringVar(&opts.Timeline, "timeline", "", "timeline note")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func projectListCmd() *cobra.Command {
	var f repo.ProjectFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListProjects(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Company", "Status", "Provider"})
				for _, p := range items {
					provider := ""
					if p.ProviderID != nil {
						provider = *p.ProviderID
					}
					tw.AppendRow(table.Row{p.ID, p.Name, p.CompanyID, p.Status, provider})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.CompanyID, "company", "", "company filter")
	cmd.Flags().StringVar(&f.ProviderID, "provider", "", "provider filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().StringVar(&f.ParentID, "parent", "", "parent project filter")
	cmd.Flags().BoolVar(&f.RootsOnly, "roots", false, "only top-level projects")
	return cmd
}

func projectShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.Repo.GetProject(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	return cmd
}

func projectUpdateCmd() *cobra.Command {
	var name, status, provider, docID, timeline string
	var investment, monthlyCost float64
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var u repo.ProjectUpdate
			if cmd.Flags().Changed("name") {
				u.Name = &name
			}
			if cmd.Flags().Changed("status") {
				u.Status = &status
			}
			if cmd.Flags().Changed("provider") {
				if provider == "" {
					u.ClearProvider = true
				} else {
					u.ProviderID = &provider
				}
			}
			if cmd.Flags().Changed("investment") {
				u.Investment = &investment
			}
			if cmd.Flags().Changed("monthly-cost") {
				u.MonthlyCost = &monthlyCost
			}
			if cmd.Flags().Changed("doc-id") {
				u.ExternalDocID = &docID
			}
			if cmd.Flags().Changed("timeline") {
				u.Timeline = &timeline
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.UpdateProject(ctx, args[0], u, actorEmail())
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&provider, "provider", "", "provider id (empty clears)")
	cmd.Flags().Float64Var(&investment, "investment", 0, "total investment")
	cmd.Flags().Float64Var(&monthlyCost, "monthly-cost", 0, "monthly cost")
	cmd.Flags().StringVar(&docID, "doc-id", "", "external documentation page id")
	cmd.Flags().StringVar(&timeline, "timeline", "", "timeline note")
	return cmd
}

func projectProgressCmd() *cobra.Command {
	var company string
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Read progress from external documentation pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if e.Config.Docspace.BaseURL == "" {
					return fmt.Errorf("docspace is not configured; set docspace.base_url in settings")
				}
				docs := docspace.New(e.Config.Docspace.BaseURL, os.Getenv("HB_DOCSPACE_TOKEN"))
				items, err := e.PortfolioProgress(ctx, docs, repo.ProjectFilters{CompanyID: company})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Project", "Doc", "Progress"})
				for _, it := range items {
					tw.AppendRow(table.Row{it.Name, it.ExternalDocID, fmt.Sprintf("%.0f%%", it.Progress)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "company filter")
	return cmd
}

func projectDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteProject(ctx, args[0], actorEmail())
			})
		},
	}
	return cmd
}

// --- task ---

func taskCmd() *cobra.Command {
	t := &cobra.Command{
		Use:   "task",
		Short: "Manage operational tasks",
		Long:  "Tasks are dated work items assigned to providers. Completing a task that sits on a project also completes that project in the same transaction.",
	}
	t.AddCommand(taskCreateCmd())
	t.AddCommand(taskListCmd())
	t.AddCommand(taskDoneCmd())
	t.AddCommand(taskDeleteCmd())
	return t
}

func taskCreateCmd() *cobra.Command {
	var opts engine.TaskCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create task",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorEmail = actorEmail()
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.CreateTask(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Title, "title", "", "task title")
	cmd.Flags().StringVar(&opts.ProviderID, "provider", "", "provider id")
	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "project id")
	cmd.Flags().StringVar(&opts.DueDate, "due", "", "due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func taskListCmd() *cobra.Command {
	var f repo.TaskFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListTasks(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Provider", "Due"})
				for _, t := range items {
					provider := ""
					if t.ProviderID != nil {
						provider = *t.ProviderID
					}
					due := ""
					if t.DueDate != nil {
						due = *t.DueDate
					}
					tw.AppendRow(table.Row{t.ID, t.Title, t.Status, provider, due})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.ProviderID, "provider", "", "provider filter")
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "project filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	return cmd
}

func taskDoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Complete task (and its project, if any)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.CompleteTask(ctx, args[0], actorEmail())
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	return cmd
}

func taskDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteTask(ctx, args[0], actorEmail())
			})
		},
	}
	return cmd
}

// --- board ---

func boardCmd() *cobra.Command {
	b := &cobra.Command{
		Use:   "board",
		Short: "Board task delegation",
		Long:  "Board tasks delegate work from a requestor to a provider. Each side archives independently; resolving marks done (with comment and attachment) or refused (with reason).",
	}
	b.AddCommand(boardCreateCmd())
	b.AddCommand(boardListCmd())
	b.AddCommand(boardResolveCmd())
	b.AddCommand(boardReopenCmd())
	b.AddCommand(boardArchiveCmd(true))
	b.AddCommand(boardArchiveCmd(false))
	return b
}

func boardCreateCmd() *cobra.Command {
	var title, provider string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Delegate a task to a provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := session.Resolve(ctx, e.Repo, actorEmail())
				if err != nil {
					return err
				}
				b, err := e.CreateBoardTask(ctx, engine.BoardTaskCreateOptions{
					Title:          title,
					ProviderID:     provider,
					RequestorEmail: s.Email,
					RequestorName:  s.Name,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(b)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&provider, "provider", "", "responsible provider id")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("provider")
	return cmd
}

func boardListCmd() *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List board tasks visible to the actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := session.Resolve(ctx, e.Repo, actorEmail())
				if err != nil {
					return err
				}
				all, err := e.Repo.ListBoardTasks(ctx, repo.BoardTaskFilters{})
				if err != nil {
					return err
				}
				visible := engine.VisibleBoardTasks(all, s, view)
				if viper.GetBool("json") {
					return printJSON(visible)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Provider", "Requestor"})
				for _, b := range visible {
					tw.AppendRow(table.Row{b.ID, b.Title, b.Status, b.ProviderID, b.RequestorEmail})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&view, "view", engine.ViewActive, "active or archived")
	return cmd
}

func boardResolveCmd() *cobra.Command {
	var status, comment, attachment, reason string
	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Mark a board task done or refused",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := session.Resolve(ctx, e.Repo, actorEmail())
				if err != nil {
					return err
				}
				b, err := e.ResolveBoardTask(ctx, args[0], status, comment, attachment, reason, s)
				if err != nil {
					return err
				}
				return printJSONOrTable(b)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "done", "done or refused")
	cmd.Flags().StringVar(&comment, "comment", "", "completion comment")
	cmd.Flags().StringVar(&attachment, "attachment", "", "attachment URL")
	cmd.Flags().StringVar(&reason, "reason", "", "refusal reason")
	return cmd
}

func boardReopenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reopen <id>",
		Short: "Return a resolved board task to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := session.Resolve(ctx, e.Repo, actorEmail())
				if err != nil {
					return err
				}
				b, err := e.ReopenBoardTask(ctx, args[0], s)
				if err != nil {
					return err
				}
				return printJSONOrTable(b)
			})
		},
	}
	return cmd
}

func boardArchiveCmd(archive bool) *cobra.Command {
	use, short := "archive <id>", "Archive a board task for the actor's role"
	if !archive {
		use, short = "restore <id>", "Restore an archived board task"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := session.Resolve(ctx, e.Repo, actorEmail())
				if err != nil {
					return err
				}
				b, err := e.SetBoardTaskArchived(ctx, args[0], s, archive)
				if err != nil {
					return err
				}
				return printJSONOrTable(b)
			})
		},
	}
	return cmd
}

// --- meeting ---

func meetingCmd() *cobra.Command {
	m := &cobra.Command{
		Use:   "meeting",
		Short: "Governance meetings",
		Long:  "Meetings carry three ordered agenda lists and a decision list. Finalizing completes the meeting and converts every decision with a text and a responsible provider into a pending board task, exactly once.",
	}
	m.AddCommand(meetingCreateCmd())
	m.AddCommand(meetingListCmd())
	m.AddCommand(meetingShowCmd())
	m.AddCommand(meetingItemCmd())
	m.AddCommand(meetingDecisionCmd())
	m.AddCommand(meetingFinalizeCmd())
	m.AddCommand(meetingDeleteCmd())
	return m
}

func meetingCreateCmd() *cobra.Command {
	var mctx, date string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Schedule a meeting",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.CreateMeeting(ctx, mctx, date, actorEmail())
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	cmd.Flags().StringVar(&mctx, "context", "", "meeting context label")
	cmd.Flags().StringVar(&date, "date", "", "meeting date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func meetingListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List meetings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListMeetings(ctx, status)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "scheduled or completed")
	return cmd
}

func meetingShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show meeting with agenda and decisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.Repo.GetMeeting(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	return cmd
}

func meetingItemCmd() *cobra.Command {
	item := &cobra.Command{Use: "item", Short: "Manage agenda items"}

	var list, text string
	add := &cobra.Command{
		Use:   "add <meeting-id>",
		Short: "Append an agenda item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				it, err := e.AddMeetingItem(ctx, args[0], list, text, actorEmail())
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	add.Flags().StringVar(&list, "list", "general", "provider_agenda, requestor_agenda or general")
	add.Flags().StringVar(&text, "text", "", "item text")
	_ = add.MarkFlagRequired("text")
	item.AddCommand(add)

	var moveList, fromID, toID string
	move := &cobra.Command{
		Use:   "move <meeting-id>",
		Short: "Move an agenda item before another",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ReorderItems(ctx, args[0], moveList, fromID, toID, actorEmail())
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	move.Flags().StringVar(&moveList, "list", "general", "agenda list")
	move.Flags().StringVar(&fromID, "from", "", "item id to move")
	move.Flags().StringVar(&toID, "to", "", "item id to land on")
	_ = move.MarkFlagRequired("from")
	_ = move.MarkFlagRequired("to")
	item.AddCommand(move)

	return item
}

func meetingDecisionCmd() *cobra.Command {
	dec := &cobra.Command{Use: "decision", Short: "Manage decisions"}

	var text, responsible string
	add := &cobra.Command{
		Use:   "add <meeting-id>",
		Short: "Record a decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.AddMeetingDecision(ctx, args[0], text, responsible, actorEmail())
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	add.Flags().StringVar(&text, "text", "", "decision text")
	add.Flags().StringVar(&responsible, "responsible", "", "responsible provider id")
	_ = add.MarkFlagRequired("text")
	dec.AddCommand(add)

	return dec
}

func meetingFinalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finalize <id>",
		Short: "Complete the meeting and convert decisions into board tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, created, err := e.FinalizeMeeting(ctx, args[0], actorEmail())
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"meeting": m, "created_task_count": created})
				}
				fmt.Printf("Meeting %s finalized, %d board task(s) created\n", m.ID, created)
				return nil
			})
		},
	}
	return cmd
}

func meetingDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteMeeting(ctx, args[0], actorEmail())
			})
		},
	}
	return cmd
}

// --- personal ---

func personalCmd() *cobra.Command {
	p := &cobra.Command{
		Use:   "personal",
		Short: "Personal tasks",
		Long:  "Private tasks scoped to the actor email. Completing a recurring task spawns the next occurrence from its due date (or today when undated).",
	}
	p.AddCommand(personalAddCmd())
	p.AddCommand(personalListCmd())
	p.AddCommand(personalToggleCmd())
	p.AddCommand(personalDeleteCmd())
	return p
}

func personalAddCmd() *cobra.Command {
	var text, pctx, recurrence, due string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a personal task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.CreatePersonalTask(ctx, engine.PersonalTaskCreateOptions{
					OwnerEmail: actorEmail(),
					Text:       text,
					Context:    pctx,
					Recurrence: recurrence,
					DueDate:    due,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "task text")
	cmd.Flags().StringVar(&pctx, "context", "", "context label")
	cmd.Flags().StringVar(&recurrence, "recurrence", "", "none, daily, weekly or monthly")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func personalListCmd() *cobra.Command {
	var pctx string
	var pending bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the actor's personal tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListPersonalTasks(ctx, repo.PersonalTaskFilters{
					OwnerEmail: actorEmail(),
					Context:    pctx,
					Pending:    pending,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	cmd.Flags().StringVar(&pctx, "context", "", "context filter")
	cmd.Flags().BoolVar(&pending, "pending", false, "only pending tasks")
	return cmd
}

func personalToggleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle done state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, spawned, err := e.TogglePersonalTask(ctx, args[0], actorEmail())
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"task": t, "spawned": spawned})
				}
				fmt.Printf("%s done=%v\n", t.ID, t.Done)
				if spawned != nil {
					due := ""
					if spawned.DueDate != nil {
						due = *spawned.DueDate
					}
					fmt.Printf("next occurrence %s due %s\n", spawned.ID, due)
				}
				return nil
			})
		},
	}
	return cmd
}

func personalDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a personal task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeletePersonalTask(ctx, args[0], actorEmail())
			})
		},
	}
	return cmd
}

// --- thesis ---

func thesisCmd() *cobra.Command {
	t := &cobra.Command{
		Use:   "thesis",
		Short: "R&D thesis pipeline",
		Long:  "Theses start as drafts. Approving one spawns an ON_TRACK project whose investment is twelve months of the projected revenue; rejecting closes it. Either way the thesis leaves DRAFT exactly once.",
	}
	t.AddCommand(thesisCreateCmd())
	t.AddCommand(thesisListCmd())
	t.AddCommand(thesisApproveCmd())
	t.AddCommand(thesisRejectCmd())
	return t
}

func thesisCreateCmd() *cobra.Command {
	var opts engine.ThesisCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft thesis",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorEmail = actorEmail()
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.CreateThesis(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Title, "title", "", "thesis title")
	cmd.Flags().StringVar(&opts.CompanyID, "company", "", "company id")
	cmd.Flags().Float64Var(&opts.RiskScore, "risk", 0, "risk score")
	cmd.Flags().Float64Var(&opts.MonthlyRevenue, "monthly-revenue", 0, "projected monthly revenue")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func thesisListCmd() *cobra.Command {
	var f repo.ThesisFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List theses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListTheses(ctx, f)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	cmd.Flags().StringVar(&f.CompanyID, "company", "", "company filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "DRAFT, APPROVED or REJECTED")
	return cmd
}

func thesisApproveCmd() *cobra.Command {
	var company string
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a thesis, spawning its project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, p, err := e.ApproveThesis(ctx, args[0], company, actorEmail())
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"thesis": t, "project": p})
				}
				fmt.Printf("Thesis %s approved; project %s created with investment %.2f\n", t.ID, p.ID, p.Investment)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "company for the spawned project (defaults to the thesis company)")
	return cmd
}

func thesisRejectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a thesis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.RejectThesis(ctx, args[0], actorEmail())
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	return cmd
}

// --- regulatory docs ---

func regdocCmd() *cobra.Command {
	r := &cobra.Command{Use: "regdoc", Short: "Regulatory documents"}
	r.AddCommand(regdocAddCmd())
	r.AddCommand(regdocListCmd())
	r.AddCommand(regdocDeleteCmd())
	return r
}

func regdocAddCmd() *cobra.Command {
	var opts engine.RegulatoryDocCreateOptions
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a regulatory document",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorEmail = actorEmail()
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.CreateRegulatoryDoc(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&opts.CompanyID, "company", "", "company id")
	cmd.Flags().StringVar(&opts.Category, "category", "", "document category")
	cmd.Flags().StringVar(&opts.Status, "status", "VALID", "VALID or MISSING")
	cmd.Flags().StringVar(&opts.Expiration, "expiration", "", "expiration date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.FileURL, "file-url", "", "stored file URL")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func regdocListCmd() *cobra.Command {
	var f repo.RegulatoryDocFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List regulatory documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListRegulatoryDocs(ctx, f)
				if err != nil {
					return err
				}
				now := e.Now()
				window := e.Config.ExpiringWindowDays()
				for i := range items {
					items[i].Staleness = engine.ClassifyStaleness(items[i].Expiration, now, window)
				}
				return printJSONOrTable(items)
			})
		},
	}
	cmd.Flags().StringVar(&f.CompanyID, "company", "", "company filter")
	cmd.Flags().StringVar(&f.Category, "category", "", "category filter")
	return cmd
}

func regdocDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete regulatory document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteRegulatoryDoc(ctx, args[0], actorEmail())
			})
		},
	}
	return cmd
}

// --- settings ---

func settingsCmd() *cobra.Command {
	s := &cobra.Command{
		Use:   "settings",
		Short: "Inspect group settings",
		Long:  "Group settings (compliance categories, storage, webhooks) live in the workspace DB. Import from holdingboard.yml explicitly; nothing is re-read from disk at runtime.",
	}
	s.AddCommand(settingsShowCmd())
	s.AddCommand(settingsImportCmd())
	s.AddCommand(settingsValidateCmd())
	return s
}

func settingsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show stored settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSONOrTable(e.Config)
			})
		},
	}
	return cmd
}

func settingsImportCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import settings from YAML into the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromFile(filePath)
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := app.ImportSettings(ctx, r, cfg); err != nil {
					return err
				}
				return printJSONOrTable(cfg)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to YAML settings")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func settingsValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate stored settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Config.Validate()
			})
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("settings OK")
			return nil
		},
	}
	return cmd
}

// --- profiles ---

func profileCmd() *cobra.Command {
	p := &cobra.Command{Use: "profile", Short: "Manage user profiles"}
	p.AddCommand(profileSetCmd())
	p.AddCommand(profileListCmd())
	return p
}

func profileSetCmd() *cobra.Command {
	var email, name, providerID string
	var admin bool
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update a profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				p := domain.Profile{
					Email: email,
					Name:  name,
					Admin: admin,
				}
				if providerID != "" {
					p.ProviderID = &providerID
				}
				if err := r.UpsertProfile(ctx, p); err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "profile email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant admin")
	cmd.Flags().StringVar(&providerID, "provider", "", "provider this user answers for")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func profileListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListProfiles(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

// --- api keys ---

func apikeyCmd() *cobra.Command {
	k := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	k.AddCommand(apikeyCreateCmd())
	k.AddCommand(apikeyListCmd())
	k.AddCommand(apikeyRevokeCmd())
	return k
}

func apikeyCreateCmd() *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue an API key for an email",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := make([]byte, 32)
			if _, err := rand.Read(raw); err != nil {
				return err
			}
			key := "hb_" + hex.EncodeToString(raw)
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				rec := domain.APIKey{
					ID:        uuid.NewString(),
					Email:     email,
					Name:      name,
					KeyHash:   repo.HashAPIKey(key),
					CreatedAt: time.Now().UTC().Format(time.RFC3339),
				}
				if err := r.InsertAPIKey(ctx, rec); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"id": rec.ID, "key": key})
				}
				fmt.Printf("API key %s created. Store it now, it is not shown again:\n%s\n", rec.ID, key)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "key owner email")
	cmd.Flags().StringVar(&name, "name", "", "key label")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListAPIKeys(ctx, email)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "filter by owner email")
	return cmd
}

func apikeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, args[0])
			})
		},
	}
	return cmd
}

// --- audit log ---

func logCmd() *cobra.Command {
	l := &cobra.Command{Use: "log", Short: "Audit log"}
	l.AddCommand(logTailCmd())
	return l
}

func logTailCmd() *cobra.Command {
	var n int
	var entryType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail audit entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				entries, err := e.Repo.LatestAuditEntries(ctx, n, entryType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(entries)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of entries")
	cmd.Flags().StringVar(&entryType, "type", "", "entry type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

// --- serve ---

func serveCmd() *cobra.Command {
	var addr, basePath string
	var devLogin bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			cfg, err := app.ResolveSettings(cmd.Context(), workspace, viper.GetString("group"), r)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{
				JWTSecret:     os.Getenv("HB_JWT_SECRET"),
				AllowDevLogin: devLogin,
			}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("HB_JWT_SECRET is required for bearer auth")
			}
			files := filestore.New(cfg.Storage.Dir, cfg.Storage.BaseURL)
			var docs *docspace.Client
			if cfg.Docspace.BaseURL != "" {
				docs = docspace.New(cfg.Docspace.BaseURL, os.Getenv("HB_DOCSPACE_TOKEN"))
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg, Files: files, Docs: docs})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Holding Board API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	cmd.Flags().BoolVar(&devLogin, "dev-login", false, "enable the unauthenticated dev login endpoint")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	return withRepo(ctx, func(ctx context.Context, r repo.Repo) error {
		workspace := viper.GetString("workspace")
		cfg, err := app.ResolveSettings(ctx, workspace, viper.GetString("group"), r)
		if err != nil {
			return err
		}
		e := engine.New(r.DB, cfg)
		return fn(ctx, e)
	})
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
