package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	admin "cloud.google.com/go/spanner/admin/database/apiv1"
	"cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	instanceadmin "cloud.google.com/go/spanner/admin/instance/apiv1"
	"cloud.google.com/go/spanner/admin/instance/apiv1/instancepb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

//go:embed sql/*.sql
var files embed.FS

// Statements returns the DDL of every embedded migration, in file order
func Statements() ([]string, error) {
	names, err := fs.Glob(files, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var all []string
	for _, name := range names {
		raw, err := files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		all = append(all, parseDDLStatements(string(raw))...)
	}
	return all, nil
}

// ClientOptions points admin clients at SPANNER_EMULATOR_HOST when it is set
func ClientOptions() []option.ClientOption {
	emulatorHost := os.Getenv("SPANNER_EMULATOR_HOST")
	if emulatorHost == "" {
		return nil
	}
	endpoint := strings.TrimPrefix(strings.TrimPrefix(emulatorHost, "http://"), "https://")
	return []option.ClientOption{option.WithEndpoint(endpoint)}
}

// RunMigrations creates the instance and database if needed and applies the
// embedded schema
func RunMigrations(ctx context.Context, projectID, instanceID, databaseID string) error {
	statements, err := Statements()
	if err != nil {
		return err
	}
	if len(statements) == 0 {
		fmt.Printf("No DDL statements found in migration files\n")
		return nil
	}

	fmt.Printf("Connecting to Spanner...\n")
	if host := os.Getenv("SPANNER_EMULATOR_HOST"); host != "" {
		fmt.Printf("Using emulator at %s\n", host)
	}

	if err := EnsureInstance(ctx, projectID, instanceID); err != nil {
		return err
	}

	adminClient, err := admin.NewDatabaseAdminClient(ctx, ClientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create database admin client: %w", err)
	}
	defer adminClient.Close()

	instanceName := fmt.Sprintf("projects/%s/instances/%s", projectID, instanceID)
	databasePath := fmt.Sprintf("%s/databases/%s", instanceName, databaseID)

	fmt.Printf("Checking if database exists: %s\n", databasePath)
	_, err = adminClient.GetDatabase(ctx, &databasepb.GetDatabaseRequest{Name: databasePath})
	if err != nil {
		if st, ok := status.FromError(err); !ok || st.Code() != codes.NotFound {
			return fmt.Errorf("failed to check database existence: %w", err)
		}
		fmt.Printf("Database does not exist, creating with %d statement(s): %s\n", len(statements), databaseID)
		op, err := adminClient.CreateDatabase(ctx, &databasepb.CreateDatabaseRequest{
			Parent:          instanceName,
			CreateStatement: fmt.Sprintf("CREATE DATABASE `%s`", databaseID),
			ExtraStatements: statements,
		})
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		db, err := op.Wait(ctx)
		if err != nil {
			return fmt.Errorf("database creation failed: %w", err)
		}
		fmt.Printf("✓ Database created: %s\n", db.Name)
		return nil
	}

	fmt.Printf("✓ Database exists: %s\n", databaseID)
	pending, err := pendingStatements(ctx, adminClient, databasePath, statements)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Printf("✓ Schema is up to date\n")
		return nil
	}
	return ApplyStatements(ctx, adminClient, databasePath, pending)
}

// ApplyStatements runs DDL against an existing database and waits for it
func ApplyStatements(ctx context.Context, adminClient *admin.DatabaseAdminClient, databasePath string, statements []string) error {
	fmt.Printf("Applying %d DDL statement(s)...\n", len(statements))
	op, err := adminClient.UpdateDatabaseDdl(ctx, &databasepb.UpdateDatabaseDdlRequest{
		Database:   databasePath,
		Statements: statements,
	})
	if err != nil {
		return fmt.Errorf("failed to start migrations: %w", err)
	}
	if err := op.Wait(ctx); err != nil {
		return fmt.Errorf("failed to complete migrations: %w", err)
	}
	fmt.Printf("✓ Successfully applied %d migration statement(s)\n", len(statements))
	return nil
}

// EnsureInstance creates the Spanner instance when it does not exist yet
func EnsureInstance(ctx context.Context, projectID, instanceID string) error {
	instanceAdminClient, err := instanceadmin.NewInstanceAdminClient(ctx, ClientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create instance admin client: %w", err)
	}
	defer instanceAdminClient.Close()

	instanceName := fmt.Sprintf("projects/%s/instances/%s", projectID, instanceID)
	fmt.Printf("Checking if instance exists: %s\n", instanceName)
	_, err = instanceAdminClient.GetInstance(ctx, &instancepb.GetInstanceRequest{Name: instanceName})
	if err == nil {
		fmt.Printf("✓ Instance exists: %s\n", instanceName)
		return nil
	}
	if st, ok := status.FromError(err); !ok || st.Code() != codes.NotFound {
		return fmt.Errorf("failed to check instance existence: %w", err)
	}

	fmt.Printf("Instance does not exist, creating: %s\n", instanceID)
	op, err := instanceAdminClient.CreateInstance(ctx, &instancepb.CreateInstanceRequest{
		Parent:     fmt.Sprintf("projects/%s", projectID),
		InstanceId: instanceID,
		Instance: &instancepb.Instance{
			DisplayName: instanceID,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create instance: %w", err)
	}
	if _, err := op.Wait(ctx); err != nil {
		return fmt.Errorf("instance creation failed: %w", err)
	}
	fmt.Printf("✓ Instance created: %s\n", instanceName)
	return nil
}

// pendingStatements drops CREATE TABLE / CREATE INDEX statements whose object
// already exists in the database schema
func pendingStatements(ctx context.Context, adminClient *admin.DatabaseAdminClient, databasePath string, statements []string) ([]string, error) {
	ddl, err := adminClient.GetDatabaseDdl(ctx, &databasepb.GetDatabaseDdlRequest{Database: databasePath})
	if err != nil {
		return nil, fmt.Errorf("failed to read database schema: %w", err)
	}
	existing := make(map[string]bool)
	for _, stmt := range ddl.Statements {
		if name := createdObject(stmt); name != "" {
			existing[name] = true
		}
	}

	var pending []string
	for _, stmt := range statements {
		if name := createdObject(stmt); name != "" && existing[name] {
			continue
		}
		pending = append(pending, stmt)
	}
	return pending, nil
}

// createdObject returns the lower-cased name a CREATE TABLE or CREATE INDEX
// statement defines, or "" for any other statement
func createdObject(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) < 3 || !strings.EqualFold(fields[0], "CREATE") {
		return ""
	}
	i := 1
	if strings.EqualFold(fields[i], "UNIQUE") || strings.EqualFold(fields[i], "NULL_FILTERED") {
		i++
	}
	if i+1 >= len(fields) {
		return ""
	}
	kind := strings.ToUpper(fields[i])
	if kind != "TABLE" && kind != "INDEX" {
		return ""
	}
	name := fields[i+1]
	if idx := strings.IndexAny(name, "("); idx >= 0 {
		name = name[:idx]
	}
	return strings.ToLower(strings.Trim(name, "`"))
}

// parseDDLStatements parses SQL file into individual DDL statements
func parseDDLStatements(sql string) []string {
	var statements []string
	var currentStatement strings.Builder

	for _, line := range strings.Split(sql, "\n") {
		trimmed := strings.TrimSpace(line)

		// Skip empty lines and full-line comments
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}

		// Remove inline comments (-- comment)
		if idx := strings.Index(trimmed, "--"); idx >= 0 {
			trimmed = strings.TrimSpace(trimmed[:idx])
		}

		if currentStatement.Len() > 0 {
			currentStatement.WriteString(" ")
		}
		currentStatement.WriteString(trimmed)

		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSuffix(strings.TrimSpace(currentStatement.String()), ";")
			if stmt != "" {
				statements = append(statements, stmt)
			}
			currentStatement.Reset()
		}
	}

	// Handle any remaining statement without trailing semicolon
	if currentStatement.Len() > 0 {
		if stmt := strings.TrimSpace(currentStatement.String()); stmt != "" {
			statements = append(statements, stmt)
		}
	}

	return statements
}
