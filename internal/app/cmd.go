package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker はワーカーモード（期限切れセッションの掃除）で起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandImportIngredients は食材カタログのCSVを取り込むことを示す。
	// 2番目の引数にファイルパスまたはURLを指定する。
	CommandImportIngredients Command = "import-ingredients"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "worker":
		return CommandWorker
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "import-ingredients":
		return CommandImportIngredients
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}

// CommandArg はサブコマンドに続く最初の引数を返す。存在しない場合は空文字列。
func CommandArg(args []string) string {
	if len(args) < 2 {
		return ""
	}
	return args[1]
}
