package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tasktracker/internal/model"
	"tasktracker/internal/service"
)

const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldTimer       = "timer"
	fieldPhoto       = "photo"
	fieldStatus      = "status"
)

var editPrompts = map[string]string{
	fieldName:        "✏️ Send the new name.",
	fieldDescription: "📝 Send the new description (or Clear).",
	fieldTimer:       "⏱ Send the timer in seconds (or Clear).",
	fieldPhoto:       "📷 Send a photo or an image link (or Clear).",
}

func detailsKeyboard(task model.Task) tgbotapi.InlineKeyboardMarkup {
	status := tgbotapi.NewInlineKeyboardButtonData("✅ Complete", cbDonePrefix+task.ID)
	if task.IsCompleted() {
		status = tgbotapi.NewInlineKeyboardButtonData("↩️ Reopen", cbReopenPrefix+task.ID)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			status,
			tgbotapi.NewInlineKeyboardButtonData("✏️ Edit", cbEditPrefix+task.ID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📤 Share", cbSharePrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", cbDeletePrefix+task.ID),
		),
	)
}

func editKeyboard(task model.Task) tgbotapi.InlineKeyboardMarkup {
	button := func(label, field string) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(label, cbFieldPrefix+field+":"+task.ID)
	}
	toggle := "✅ Mark completed"
	if task.IsCompleted() {
		toggle = "↩️ Mark in progress"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("Name", fieldName), button("Description", fieldDescription)),
		tgbotapi.NewInlineKeyboardRow(button("Timer", fieldTimer), button("Photo", fieldPhoto)),
		tgbotapi.NewInlineKeyboardRow(button(toggle, fieldStatus)),
	)
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelDigest),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func clearKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnClear),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isClearInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnClear) || value == "clear"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "stop"
}

func statusIcon(task model.Task) string {
	if task.IsCompleted() {
		return "✅"
	}
	return "🟢"
}

func statusLabel(task model.Task) string {
	if task.IsCompleted() {
		return "Completed"
	}
	return "In Progress"
}

func formatListItem(pos int, task model.Task) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%d.</b> %s\n", statusIcon(task), pos, escape(task.Name)))
	if task.Description != nil && *task.Description != "" {
		b.WriteString(fmt.Sprintf("   📝 %s\n", escape(shortTitle(*task.Description, 80))))
	}
	if task.Timer != nil && *task.Timer != "" {
		b.WriteString(fmt.Sprintf("   ⏱ %s seconds\n", escape(*task.Timer)))
	}
	b.WriteByte('\n')
	return b.String()
}

func formatDetails(task model.Task) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b>\n", statusIcon(task), escape(task.Name)))
	if task.Description != nil && *task.Description != "" {
		b.WriteString(fmt.Sprintf("\n%s\n", escape(*task.Description)))
	}
	if task.Timer != nil && *task.Timer != "" {
		b.WriteString(fmt.Sprintf("\n⏱ %s seconds", escape(*task.Timer)))
	}
	if task.TaskImage != nil {
		if _, ok := photoFile(task.TaskImage); !ok {
			b.WriteString(fmt.Sprintf("\n🖼 %s", escape(*task.TaskImage)))
		}
	}
	since := service.StatusSince(task).Local().Format("2006-01-02 15:04")
	b.WriteString(fmt.Sprintf("\n📌 %s · %s", statusLabel(task), since))
	return b.String()
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
