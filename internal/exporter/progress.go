package exporter

// ProgressEvent 出力の進捗（画面表示用）
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Stage   string `json:"stage"`
}

// 出力の段階。Export はこの順に通知する
var (
	stagePreparing = ProgressEvent{Percent: 0, Stage: "出力を準備しています"}
	stageLaidOut   = ProgressEvent{Percent: 30, Stage: "カレンダーを作成しました"}
	stageRendering = ProgressEvent{Percent: 50, Stage: "ファイルを生成しています"}
	stageRendered  = ProgressEvent{Percent: 80, Stage: "ダウンロードを準備しています"}
	stageDone      = ProgressEvent{Percent: 100, Stage: "完了しました"}
)

// notify 進捗の受け取り先があれば段階を渡す
func (o Options) notify(stage ProgressEvent) {
	if o.Progress != nil {
		o.Progress(stage)
	}
}
