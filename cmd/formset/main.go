package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/yaml.v3"

	"github.com/parclip/formset/internal/config"
	"github.com/parclip/formset/internal/db"
	"github.com/parclip/formset/internal/services"
	"github.com/parclip/formset/internal/store"
	"github.com/parclip/formset/internal/utils"
)

const usage = `usage: formset <command> [flags]

commands:
  migrate                      apply database migrations
  seed                         ensure the default question set exists
  set -name NAME [-author A] FILE
                               create a question-set version from a YAML/JSON file
  sets                         list question-set versions
  import FILE                  create projects from a file, one name per line
  projects [-all]              list projects
  form -project NAME           print a project's merged form
  submit -project NAME [-user U] FILE
                               submit answers from a YAML/JSON file
  records -project NAME [-limit N]
                               list a project's records, newest first
`

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("formset: %v", err)
	}

	cmd, args := os.Args[1], os.Args[2:]
	if err := run(cfg, cmd, args); err != nil {
		log.Fatalf("formset: %v", err)
	}
}

func run(cfg *config.Config, cmd string, args []string) error {
	st, closeFn, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	versionSvc := services.NewVersionService(st)
	projectSvc := services.NewProjectService(st)
	formSvc := services.NewFormService(st)
	recordSvc := services.NewRecordService(st)

	switch cmd {
	case "migrate":
		// openStore already ran migrations.
		log.Printf("migrations applied")
		return nil

	case "seed":
		v, err := versionSvc.EnsureDefault()
		if err != nil {
			return err
		}
		log.Printf("default question set %s (%s)", v.ID, utils.FormatTime(v.CreatedAt))
		return nil

	case "set":
		fs := flag.NewFlagSet("set", flag.ExitOnError)
		name := fs.String("name", "", "question set name")
		author := fs.String("author", cfg.DefaultAuthor, "author recorded on the version")
		if err := fs.Parse(args); err != nil {
			return err
		}
		raw, err := readPayload(fs.Arg(0))
		if err != nil {
			return err
		}
		v, err := versionSvc.CreateVersion(*name, raw, *author)
		if err != nil {
			return err
		}
		log.Printf("created version %s of %q", v.ID, v.Name)
		return nil

	case "sets":
		versions, err := versionSvc.List()
		if err != nil {
			return err
		}
		for _, v := range versions {
			log.Printf("%s  %-20s %s", v.ID, v.Name, utils.FormatTime(v.CreatedAt))
		}
		return nil

	case "import":
		fs := flag.NewFlagSet("import", flag.ExitOnError)
		if err := fs.Parse(args); err != nil {
			return err
		}
		data, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			return err
		}
		names := strings.Split(string(data), "\n")
		n, err := projectSvc.Import(names)
		if err != nil {
			return err
		}
		log.Printf("created %d projects", n)
		return nil

	case "projects":
		fs := flag.NewFlagSet("projects", flag.ExitOnError)
		all := fs.Bool("all", false, "include closed projects")
		if err := fs.Parse(args); err != nil {
			return err
		}
		projects, err := projectSvc.List(*all, false)
		if err != nil {
			return err
		}
		for _, p := range projects {
			state := ""
			if p.Closed {
				state = "  (closed)"
			}
			log.Printf("%s  %s%s", p.ID, p.Name, state)
		}
		return nil

	case "form":
		fs := flag.NewFlagSet("form", flag.ExitOnError)
		project := fs.String("project", "", "project name")
		if err := fs.Parse(args); err != nil {
			return err
		}
		p, err := st.GetProjectByName(*project)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("project %q not found", *project)
		}
		form, err := formSvc.MergedForm(p.ID)
		if err != nil {
			return err
		}
		return printJSON(form)

	case "submit":
		fs := flag.NewFlagSet("submit", flag.ExitOnError)
		project := fs.String("project", "", "project name")
		user := fs.String("user", cfg.DefaultAuthor, "submitting user")
		if err := fs.Parse(args); err != nil {
			return err
		}
		p, err := st.GetProjectByName(*project)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("project %q not found", *project)
		}
		raw, err := readPayload(fs.Arg(0))
		if err != nil {
			return err
		}
		answers, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("answers file must decode to a mapping")
		}
		rec, err := recordSvc.Submit(p.ID, *user, answers)
		if err != nil {
			return err
		}
		log.Printf("record %s created", rec.ID)
		return nil

	case "records":
		fs := flag.NewFlagSet("records", flag.ExitOnError)
		project := fs.String("project", "", "project name")
		limit := fs.Int("limit", 20, "max records")
		if err := fs.Parse(args); err != nil {
			return err
		}
		p, err := st.GetProjectByName(*project)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("project %q not found", *project)
		}
		records, err := recordSvc.List(p.ID, *limit)
		if err != nil {
			return err
		}
		for _, r := range records {
			log.Printf("%s  %s  %s  %s", r.ID, utils.FormatTime(r.CreatedAt), r.CreatedBy, r.ReviewStatus)
		}
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func openStore(cfg *config.Config) (store.Store, func(), error) {
	if cfg.DBPath == "" {
		return store.NewMemoryStore(), func() {}, nil
	}
	sqlDB, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(sqlDB, cfg.MigrationsDir); err != nil {
		sqlDB.Close()
		return nil, nil, err
	}
	st, err := db.NewStore(sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}
	return st, func() { sqlDB.Close() }, nil
}

// readPayload decodes a YAML or JSON document into generic Go values. YAML
// is a superset of JSON here, so one decoder covers both.
func readPayload(path string) (any, error) {
	if path == "" {
		return nil, fmt.Errorf("file argument required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
