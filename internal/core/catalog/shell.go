package catalog

// ShellCommand 可选的shell命令
// 零值即None，表示未知命令/空操作，持有它的StreamCommand是惰性的
type ShellCommand struct {
	cmd string
	set bool
}

// Some 构造一个存在的命令
func Some(cmd string) ShellCommand {
	return ShellCommand{cmd: cmd, set: true}
}

// None 构造一个不存在的命令
func None() ShellCommand {
	return ShellCommand{}
}

// Get 返回命令及是否存在
func (s ShellCommand) Get() (string, bool) {
	return s.cmd, s.set
}

// IsSet 命令是否存在
func (s ShellCommand) IsSet() bool {
	return s.set
}

func (s ShellCommand) String() string {
	if !s.set {
		return "<none>"
	}
	return s.cmd
}
