package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/dyluth/flowlog/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

type templateData struct {
	Collection string
}

// Initialize creates flowlog.yml and the models/ directory in dir.
// With force an existing flowlog.yml is replaced.
func Initialize(dir, collection string, force bool) error {
	if collection == "" {
		collection = filepath.Base(dir)
	}

	if force {
		if err := handleForce(dir); err != nil {
			return err
		}
	} else if err := CheckExisting(dir); err != nil {
		return err
	}

	files, err := getTemplateFiles(dir, templateData{Collection: collection})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(dir, "models"), 0755); err != nil {
		return fmt.Errorf("failed to create directory models: %w", err)
	}

	for _, file := range files {
		if err := os.WriteFile(file.Path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}

	// The scaffolded file must load like any user-edited one.
	if _, err := config.Load(filepath.Join(dir, config.DefaultFile)); err != nil {
		return fmt.Errorf("created %s is invalid: %w", config.DefaultFile, err)
	}
	return nil
}

func handleForce(dir string) error {
	path := filepath.Join(dir, config.DefaultFile)
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("⚠️  Removing existing %s...\n", config.DefaultFile)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", config.DefaultFile, err)
		}
	}
	return nil
}

func getTemplateFiles(dir string, data templateData) ([]FileInfo, error) {
	raw, err := templatesFS.ReadFile("templates/flowlog.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read flowlog.yml template: %w", err)
	}

	tmpl, err := template.New("flowlog.yml").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse flowlog.yml template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render flowlog.yml template: %w", err)
	}

	return []FileInfo{{
		Path:        filepath.Join(dir, config.DefaultFile),
		Content:     buf.Bytes(),
		Permissions: 0644,
	}}, nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess() {
	fmt.Println("\n✅ Successfully initialized flowlog project!")
	fmt.Println("\nCreated:")
	fmt.Println("  ✓ flowlog.yml")
	fmt.Println("  ✓ models/")
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set script_path and datasets in flowlog.yml")
	fmt.Println("  2. Point redis_url at your data service")
	fmt.Println("  3. Run 'flowlog records' to check the connection")
}
