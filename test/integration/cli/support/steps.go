package support

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
	"gopkg.in/yaml.v3"
)

// aCleanWorkingDirectory enters the scenario temp directory.
func (testCtx *TestContext) aCleanWorkingDirectory() error {
	return testCtx.Enter()
}

// theEnvironmentVariableIsSet sets an environment variable for the scenario.
func (testCtx *TestContext) theEnvironmentVariableIsSet(name, value string) error {
	testCtx.setEnv(name, value)
	return nil
}

// aConfigFileWithContent writes a file relative to the temp directory.
func (testCtx *TestContext) aConfigFileWithContent(name string, content *godog.DocString) error {
	path := filepath.Join(testCtx.TempDir, name)
	if err := os.WriteFile(path, []byte(content.Content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// iRun executes slimtimer in-process.
func (testCtx *TestContext) iRun(command string) error {
	testCtx.Execute(command)
	return nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("command %q failed: %w\nStderr: %s", testCtx.LastCommand, testCtx.LastError, testCtx.LastStderr)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastError == nil {
		return fmt.Errorf("command %q succeeded when it should have failed\nStdout: %s", testCtx.LastCommand, testCtx.LastStdout)
	}
	return nil
}

// theErrorShouldMention verifies the returned error text.
func (testCtx *TestContext) theErrorShouldMention(text string) error {
	if testCtx.LastError == nil {
		return fmt.Errorf("expected an error mentioning %q, got none", text)
	}
	if !strings.Contains(testCtx.LastError.Error(), text) {
		return fmt.Errorf("error %q does not mention %q", testCtx.LastError, text)
	}
	return nil
}

// theOutputShouldContain verifies stdout contains specific text.
func (testCtx *TestContext) theOutputShouldContain(text string) error {
	if !strings.Contains(testCtx.LastStdout, text) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", text, testCtx.LastStdout)
	}
	return nil
}

// theOutputShouldBeEmpty verifies nothing was written to stdout.
func (testCtx *TestContext) theOutputShouldBeEmpty() error {
	if strings.TrimSpace(testCtx.LastStdout) != "" {
		return fmt.Errorf("expected empty output, got: %s", testCtx.LastStdout)
	}
	return nil
}

// theStderrShouldContain verifies stderr contains specific text.
func (testCtx *TestContext) theStderrShouldContain(text string) error {
	if !strings.Contains(testCtx.LastStderr, text) {
		return fmt.Errorf("stderr does not contain '%s'\nActual stderr: %s", text, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) jsonOutput() (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(testCtx.LastStdout), &data); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, testCtx.LastStdout)
	}
	return data, nil
}

// theOutputShouldBeValidJSON verifies stdout is a JSON object.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	_, err := testCtx.jsonOutput()
	return err
}

// theJSONShouldHaveExactlyKeys verifies the exported key set.
func (testCtx *TestContext) theJSONShouldHaveExactlyKeys(keys string) error {
	data, err := testCtx.jsonOutput()
	if err != nil {
		return err
	}

	want := strings.Split(keys, ",")
	if len(data) != len(want) {
		return fmt.Errorf("expected %d keys, got %d: %v", len(want), len(data), data)
	}
	for _, k := range want {
		if _, ok := data[strings.TrimSpace(k)]; !ok {
			return fmt.Errorf("missing key %q in %v", k, data)
		}
	}
	return nil
}

// theJSONFieldShouldHaveEntries verifies the length of an array field.
func (testCtx *TestContext) theJSONFieldShouldHaveEntries(field string, n int) error {
	data, err := testCtx.jsonOutput()
	if err != nil {
		return err
	}
	values, ok := data[field].([]any)
	if !ok {
		return fmt.Errorf("field %q is not an array: %v", field, data[field])
	}
	if len(values) != n {
		return fmt.Errorf("field %q has %d entries, want %d", field, len(values), n)
	}
	return nil
}

// theOutputShouldBeValidCSVWithRows verifies the CSV report shape.
func (testCtx *TestContext) theOutputShouldBeValidCSVWithRows(n int) error {
	records, err := csv.NewReader(strings.NewReader(testCtx.LastStdout)).ReadAll()
	if err != nil {
		return fmt.Errorf("output is not valid CSV: %w", err)
	}
	if len(records) != n+1 {
		return fmt.Errorf("expected %d data rows, got %d", n, len(records)-1)
	}
	if strings.Join(records[0], ",") != "tag,run,seconds" {
		return fmt.Errorf("unexpected CSV header: %v", records[0])
	}
	return nil
}

// theOutputShouldBeValidYAML verifies stdout parses as YAML.
func (testCtx *TestContext) theOutputShouldBeValidYAML() error {
	var data map[string]any
	if err := yaml.Unmarshal([]byte(testCtx.LastStdout), &data); err != nil {
		return fmt.Errorf("output is not valid YAML: %w", err)
	}
	return nil
}

// theFileShouldExist verifies a file in the temp directory exists.
func (testCtx *TestContext) theFileShouldExist(name string) error {
	if _, err := os.Stat(filepath.Join(testCtx.TempDir, name)); err != nil {
		return fmt.Errorf("file %s does not exist: %w", name, err)
	}
	return nil
}

// theFileShouldContain verifies a file in the temp directory contains text.
func (testCtx *TestContext) theFileShouldContain(name, text string) error {
	data, err := os.ReadFile(filepath.Join(testCtx.TempDir, name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("file %s does not contain %q\nContent: %s", name, text, string(data))
	}
	return nil
}

// RegisterSteps registers all step definitions.
func (testCtx *TestContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a clean working directory$`, testCtx.aCleanWorkingDirectory)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSet)
	sc.Step(`^a file "([^"]*)" with content:$`, testCtx.aConfigFileWithContent)

	sc.Step(`^I run "([^"]*)"$`, testCtx.iRun)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)

	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should be empty$`, testCtx.theOutputShouldBeEmpty)
	sc.Step(`^stderr should contain "([^"]*)"$`, testCtx.theStderrShouldContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON should have exactly the keys "([^"]*)"$`, testCtx.theJSONShouldHaveExactlyKeys)
	sc.Step(`^the JSON field "([^"]*)" should have (\d+) entries$`, testCtx.theJSONFieldShouldHaveEntries)
	sc.Step(`^the output should be valid CSV with (\d+) rows$`, testCtx.theOutputShouldBeValidCSVWithRows)
	sc.Step(`^the output should be valid YAML$`, testCtx.theOutputShouldBeValidYAML)

	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
}
