package runlog

import "strings"

// markerTranslations maps the fixed English markers the pipeline scripts
// emit to their Japanese display form. Order matters: longer markers come
// before their prefixes so a line is never half-translated.
var markerTranslations = []struct {
	en string
	ja string
}{
	{"=== Whisper Transcription Workflow ===", "=== Whisper文字起こしワークフロー ==="},
	{"=== Performance Summary ===", "=== 処理サマリー ==="},
	{"=== Completed Successfully ===", "=== 正常終了 ==="},
	{"=== Completed With Warnings ===", "=== 警告付き完了 ==="},
	{"Cleaning up intermediate files...", "中間ファイルをクリーンアップ中..."},
	{"Done! Output saved to:", "完了: 出力先"},
	{"Input:", "入力:"},
	{"Output:", "出力:"},
	{"Model:", "モデル:"},
	{"Preset:", "プリセット:"},
	{"Accuracy:", "精度目安:"},
	{"Profile:", "プロファイル:"},
	{"Mode:", "モード:"},
	{"Language:", "言語:"},
	{"Jobs:", "並列ジョブ数:"},
	{"Threads per job:", "ジョブあたりスレッド数:"},
	{"Segment length:", "分割長:"},
	{"Retry count:", "リトライ回数:"},
	{"Retry backoff:", "リトライ間隔:"},
	{"Preflight normalize:", "Preflight正規化:"},
	{"Mode override:", "モード上書き:"},
	{"WorkDir:", "作業ディレクトリ:"},
	{"Convert time:", "変換時間:"},
	{"Transcribe time:", "文字起こし時間:"},
	{"Concat time:", "結合時間:"},
	{"Total time:", "合計時間:"},
	{"Audio duration:", "音声長:"},
	{"RTF (transcribe only):", "RTF (文字起こしのみ):"},
	{"RTF (end-to-end):", "RTF (全体):"},
	{"Speed (transcribe only):", "処理速度 (文字起こしのみ):"},
	{"Speed (end-to-end):", "処理速度 (全体):"},
	{"Applying loudnorm correction", "音量正規化を適用"},
	{"[1/4] Converting to 16kHz WAV...", "[1/4] 16kHz WAVへ変換中..."},
	{"[2/2] Transcribing full audio in single pass...", "[2/2] 音声全体を文字起こし中 (単一パス)..."},
	{"[2/4] Segmenting into", "[2/4] 分割中"},
	{"[3/4] Transcribing segments (Parallel)...", "[3/4] 分割音声を文字起こし中 (並列)..."},
	{"[3/4] Completed", "[3/4] セグメント完了"},
	{"[SEGMENT_FAILED]", "[セグメント失敗]"},
	{"[4/4] Concatenating results...", "[4/4] 結果を結合中..."},
	{"Segments:", "分割数:"},
	{"[recover] input:", "[追補] 入力:"},
	{"[recover] partial output:", "[追補] 部分結果:"},
	{"[recover] failed list:", "[追補] 対象セグメント一覧:"},
	{"[recover] segment_time:", "[追補] 分割秒数:"},
	{"[recover] converting input to 16kHz wav...", "[追補] 入力を16kHz wavへ変換中..."},
	{"[recover] regenerating segments...", "[追補] セグメント再生成中..."},
	{"[recover] transcribing", "[追補] 文字起こし中"},
	{"[recover] failed:", "[追補] 失敗:"},
	{"[recover] missing segment wav:", "[追補] セグメント欠落:"},
	{"[recover] merging recovered segments into partial output...", "[追補] 結果を部分出力へマージ中..."},
	{"[recover] recovered segments:", "[追補] 回復セグメント数:"},
	{"[recover] remaining failed segments:", "[追補] 未回復セグメント数:"},
	{"[recover] output:", "[追補] 出力:"},
	{"[recover] remaining list:", "[追補] 未回復一覧:"},
	{"Force CPU mode:", "CPU固定モード:"},
	{"started", "開始"},
	{"completed", "完了"},
	{"failed", "失敗"},
	{"canceled", "キャンセル"},
}

// Localize translates the known pipeline markers in one log line.
func Localize(line string) string {
	if line == "" {
		return line
	}

	out := line
	for _, tr := range markerTranslations {
		out = strings.ReplaceAll(out, tr.en, tr.ja)
	}
	return out
}

// LocalizeText translates every line of a multi-line log excerpt.
func LocalizeText(text string) string {
	if text == "" {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = Localize(line)
	}
	return strings.Join(lines, "\n")
}
