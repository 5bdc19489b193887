package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Executor runs args as a process with env appended to the current
// environment, feeding stdin, and returns its stdout.
type Executor func(ctx context.Context, stdin string, env []string, args []string) ([]byte, error)

// RunnerDocker talks to MySQL inside a container through `docker exec` and the
// mysql CLI. It is the fallback when the server port is not reachable.
type RunnerDocker struct {
	Exec Executor
}

type InstanceDocker struct {
	container string
	user      string
	password  string
	database  string
	exec      Executor
}

func (r *RunnerDocker) Name() string { return "docker" }
func (r *RunnerDocker) Init(ctx context.Context, config Config) (Instance, error) {
	executor := r.Exec
	if executor == nil {
		executor = runCmd
	}
	instance := &InstanceDocker{
		container: config.ContainerName,
		user:      config.User,
		password:  config.Password,
		database:  config.Database,
		exec:      executor,
	}
	if _, err := instance.Query(ctx, "SELECT 1"); err != nil {
		return nil, fmt.Errorf("unable to reach mysql in container %v: %w", config.ContainerName, err)
	}
	Logger.Infof("connected to mysql via docker container %v", config.ContainerName)
	return instance, nil
}

func (i *InstanceDocker) Name() string     { return "docker:" + i.container }
func (i *InstanceDocker) Dialect() Dialect { return DialectMysql }
func (i *InstanceDocker) Close() error     { return nil }

// cmd forwards the password through MYSQL_PWD so it never shows up in argv.
func (i *InstanceDocker) cmd() (env []string, args []string) {
	args = []string{"docker", "exec", "-i"}
	if i.password != "" {
		env = []string{"MYSQL_PWD=" + i.password}
		args = append(args, "-e", "MYSQL_PWD")
	}
	args = append(args,
		i.container,
		"mysql", "-u", i.user, "-D", i.database,
		"--batch", "--default-character-set=utf8mb4",
	)
	return env, args
}

func (i *InstanceDocker) Query(ctx context.Context, query string) (Rows, error) {
	env, args := i.cmd()
	output, err := i.exec(ctx, query, env, args)
	if err != nil {
		return Rows{}, err
	}
	return ParseBatchOutput(output), nil
}

func (i *InstanceDocker) Exec(ctx context.Context, statement string, args ...any) error {
	statement, err := Interpolate(statement, args)
	if err != nil {
		return err
	}
	env, cmdArgs := i.cmd()
	_, err = i.exec(ctx, statement, env, cmdArgs)
	return err
}

func runCmd(ctx context.Context, stdin string, env []string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = strings.NewReader(stdin)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("err=%w, out=%v", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// ParseBatchOutput reads the tab separated output of `mysql --batch`: a header
// line followed by one line per row, NULL for nulls and \t \n \\ \0 escaped.
func ParseBatchOutput(output []byte) Rows {
	text := strings.TrimRight(string(output), "\n")
	if text == "" {
		return Rows{Values: make([][]any, 0)}
	}
	lines := strings.Split(text, "\n")
	rows := Rows{Columns: strings.Split(lines[0], "\t"), Values: make([][]any, 0, len(lines)-1)}
	for _, line := range lines[1:] {
		fields := strings.Split(line, "\t")
		values := make([]any, len(fields))
		for j, field := range fields {
			if field == "NULL" {
				values[j] = nil
			} else {
				values[j] = unescapeBatch(field)
			}
		}
		rows.Values = append(rows.Values, values)
	}
	return rows
}

func unescapeBatch(field string) string {
	if !strings.Contains(field, `\`) {
		return field
	}
	var b strings.Builder
	for k := 0; k < len(field); k++ {
		if field[k] != '\\' || k+1 == len(field) {
			b.WriteByte(field[k])
			continue
		}
		k++
		switch field[k] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case '0':
			b.WriteByte(0)
		default:
			b.WriteByte(field[k])
		}
	}
	return b.String()
}

// Interpolate replaces every `?` outside of quoted literals with the SQL
// literal of the matching argument.
func Interpolate(statement string, args []any) (string, error) {
	if len(args) == 0 {
		return statement, nil
	}
	var b strings.Builder
	next := 0
	var quote byte
	for k := 0; k < len(statement); k++ {
		c := statement[k]
		switch {
		case quote != 0:
			if c == '\\' && k+1 < len(statement) {
				b.WriteByte(c)
				k++
				c = statement[k]
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '?':
			if next == len(args) {
				return "", fmt.Errorf("statement has more placeholders than %v args", len(args))
			}
			literal, err := Literal(args[next])
			if err != nil {
				return "", fmt.Errorf("arg #%v: %w", next, err)
			}
			b.WriteString(literal)
			next++
			continue
		}
		b.WriteByte(c)
	}
	if next != len(args) {
		return "", fmt.Errorf("statement has %v placeholders, got %v args", next, len(args))
	}
	return b.String(), nil
}

func Literal(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "NULL", nil
	case string:
		return quoteString(v), nil
	case []byte:
		return quoteString(string(v)), nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case time.Time:
		return quoteString(v.Format(time.DateTime)), nil
	}
	return "", fmt.Errorf("unsupported literal type %T", value)
}

func quoteString(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\x00", `\0`)
	return "'" + replacer.Replace(value) + "'"
}
