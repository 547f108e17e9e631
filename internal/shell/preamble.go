package shell

import (
	"fmt"
	"strings"
)

// runCmdFunc runs the global cmd array, appends its output to $LOG_FILE and
// reports the result with a marker line. The command is read from an array
// so quoting survives the trip through the shell's stdin.
const runCmdFunc = `run_cmd() {
  local expected="$1"
  local code=0
  echo "RUN_CMD_START"
  "${cmd[@]}" < /dev/null >> "$LOG_FILE" 2>&1 || code=$?
  if [ "$code" -eq "$expected" ]; then
    echo "RUN_CMD_END"
  else
    echo "RUN_CMD_ERR exit=$code"
  fi
}
`

// Preamble returns the script written to a fresh shell: strict mode, the
// exported variables in key order, log file setup and run_cmd.
func Preamble(vars map[string]string) string {
	var b strings.Builder
	b.WriteString("set -eu\n")

	for _, k := range sortedKeys(vars) {
		fmt.Fprintf(&b, "export %s=%s\n", k, Quote(vars[k]))
	}

	b.WriteString(`mkdir -p "$(dirname "$LOG_FILE")"` + "\n")
	b.WriteString(`touch "$LOG_FILE"` + "\n")
	b.WriteString(runCmdFunc)
	return b.String()
}

// Quote wraps s in single quotes for POSIX shells.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Invocation is the line sent for one command.
func Invocation(command string, expected int) string {
	return fmt.Sprintf("cmd=(%s); run_cmd %d\n", command, expected)
}
