package engine

import "context"

// JobState tracks the lifecycle of one job.
type JobState int

// Job lifecycle states. Completed and Aborted are terminal.
const (
	JobStatePending JobState = iota
	JobStateCompleted
	JobStateAborted
)

// Job is an ordered sequence of commands executed on a single worker with
// abort-on-first-failure semantics. Ownership transfers to the engine at
// submission and back to the collector through the result queue.
type Job struct {
	Label    string
	Commands []*Command

	state JobState
}

// NewJob constructs a pending job for the given display label.
func NewJob(label string, commands ...*Command) *Job {
	return &Job{Label: label, Commands: commands}
}

// AppendCommand adds a command to the end of the job.
func (job *Job) AppendCommand(appendedCommand *Command) {
	job.Commands = append(job.Commands, appendedCommand)
}

// State returns the job lifecycle state.
func (job *Job) State() JobState {
	return job.state
}

// FirstFailedCommand returns the command that aborted the job, if any.
func (job *Job) FirstFailedCommand() *Command {
	for _, jobCommand := range job.Commands {
		if jobCommand.State() == CommandStateFailed {
			return jobCommand
		}
	}
	return nil
}

// Run executes the job's commands strictly in declaration order. After the
// first failing command the remaining commands are skipped, since later
// commands typically depend on earlier ones.
func (job *Job) Run(executionContext context.Context, runner CommandRunner, console ConsoleSink) {
	for _, jobCommand := range job.Commands {
		jobCommand.Execute(executionContext, runner, console)
		if !jobCommand.Succeeded() {
			job.state = JobStateAborted
			return
		}
	}
	job.state = JobStateCompleted
}
