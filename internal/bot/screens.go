package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tasktracker/internal/model"
	"tasktracker/internal/service"
)

var now = time.Now

func (b *Bot) startNewTaskConversation(msg *tgbotapi.Message) error {
	b.clearConfirmation(msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageName})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageName:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "⚠️ Please enter a task name.", cancelKeyboard())
		}
		state.input.Name = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Add a short description (or press Skip).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageTimer
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏱ Timer in seconds, e.g. <code>30</code> (or Skip).", skipKeyboard())
	case stageTimer:
		if !isSkipInput(text) {
			if err := service.ValidateTimer(text); err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "⚠️ Please enter a valid number for timer.", skipKeyboard())
			}
			state.input.Timer = text
		}
		state.stage = stagePhoto
		return b.sendWithReplyMarkup(msg.Chat.ID, "📷 Send a photo or an image link (or Skip).", skipKeyboard())
	case stagePhoto:
		if image := imageFromMessage(msg); image != "" {
			state.input.TaskImage = image
		} else if !isSkipInput(text) {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Send a photo, an image link, or press Skip.", skipKeyboard())
		}
		b.clearConversation(msg.From.ID)
		return b.finishTaskCreation(ctx, msg.Chat.ID, state.input)
	case stageEditValue:
		b.clearConversation(msg.From.ID)
		return b.applyEdit(ctx, msg, state)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Input was reset. Start again with /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, chatID int64, input service.TaskInput) error {
	task, err := b.taskSvc.CreateTask(ctx, input)
	if err != nil {
		return b.reportFailure(chatID, "create task", err)
	}

	b.logger.Info("task created", zap.String("id", task.ID))

	if err := b.sendText(chatID, fmt.Sprintf("✅ Task <b>%s</b> created.", escape(task.Name))); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64) error {
	tasks, err := b.taskSvc.ListTasks(ctx)
	if err != nil {
		return b.reportFailure(chatID, "list tasks", err)
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "No tasks yet. Add one with /newtask.")
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Tasks</b>\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for i, task := range tasks {
		builder.WriteString(formatListItem(i+1, task))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s %d · %s", statusIcon(task), i+1, shortTitle(task.Name, 24)),
				cbOpenPrefix+task.ID,
			),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err = b.out.Send(msg)
	return err
}

func (b *Bot) sendTaskDetails(ctx context.Context, chatID int64, id string) error {
	task, err := b.taskSvc.GetTask(ctx, id)
	if err != nil {
		return b.reportFailure(chatID, "get task", err)
	}
	if task == nil {
		return b.sendText(chatID, "Task not found or already deleted.")
	}

	text := formatDetails(*task)
	markup := detailsKeyboard(*task)

	if photo, ok := photoFile(task.TaskImage); ok {
		cfg := tgbotapi.NewPhoto(chatID, photo)
		cfg.Caption = text
		cfg.ParseMode = tgbotapi.ModeHTML
		cfg.ReplyMarkup = markup
		if _, err = b.out.Send(cfg); err == nil {
			return nil
		}
		b.logger.Warn("send task photo", zap.String("id", task.ID), zap.Error(err))
	}

	return b.sendWithReplyMarkup(chatID, text, markup)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	b.ack(cb)

	chatID := cb.Message.Chat.ID
	data := cb.Data
	b.logger.Debug("callback", zap.Int64("user", cb.From.ID), zap.String("data", data))

	switch {
	case strings.HasPrefix(data, cbOpenPrefix):
		return b.sendTaskDetails(ctx, chatID, strings.TrimPrefix(data, cbOpenPrefix))
	case strings.HasPrefix(data, cbDonePrefix):
		return b.askConfirmation(ctx, chatID, cb.From.ID, strings.TrimPrefix(data, cbDonePrefix), actionComplete)
	case strings.HasPrefix(data, cbReopenPrefix):
		return b.setStatusAndRefresh(ctx, chatID, strings.TrimPrefix(data, cbReopenPrefix), model.StatusInProgress)
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.askConfirmation(ctx, chatID, cb.From.ID, strings.TrimPrefix(data, cbDeletePrefix), actionDelete)
	case strings.HasPrefix(data, cbSharePrefix):
		return b.sendShare(ctx, chatID, strings.TrimPrefix(data, cbSharePrefix))
	case strings.HasPrefix(data, cbEditPrefix):
		return b.sendEditMenu(ctx, chatID, strings.TrimPrefix(data, cbEditPrefix))
	case strings.HasPrefix(data, cbFieldPrefix):
		field, id, ok := strings.Cut(strings.TrimPrefix(data, cbFieldPrefix), ":")
		if !ok {
			return nil
		}
		return b.startEdit(ctx, chatID, cb.From.ID, id, field)
	default:
		return nil
	}
}

func (b *Bot) askConfirmation(ctx context.Context, chatID, userID int64, id string, action confirmationAction) error {
	task, err := b.taskSvc.GetTask(ctx, id)
	if err != nil {
		return b.reportFailure(chatID, "get task", err)
	}
	if task == nil {
		return b.sendText(chatID, "Task not found or already deleted.")
	}

	var text string
	switch action {
	case actionComplete:
		if task.IsCompleted() {
			return b.sendText(chatID, "Task is already completed.")
		}
		text = fmt.Sprintf("Mark task <b>%s</b> as completed?", escape(task.Name))
	case actionDelete:
		text = fmt.Sprintf("Delete task <b>%s</b>?", escape(task.Name))
	}

	b.clearConversation(userID)
	b.setConfirmation(userID, confirmationRequest{taskID: task.ID, action: action})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) setStatusAndRefresh(ctx context.Context, chatID int64, id string, status model.TaskStatus) error {
	ok, err := b.taskSvc.SetTaskStatus(ctx, id, status)
	if err != nil {
		return b.reportFailure(chatID, "set task status", err)
	}
	if !ok {
		return b.sendText(chatID, "Task not found or already deleted.")
	}

	b.logger.Info("task status changed", zap.String("id", id), zap.String("status", string(status)))

	notice := "✅ Task completed."
	if status == model.StatusInProgress {
		notice = "↩️ Task is in progress again."
	}
	if err := b.sendText(chatID, notice); err != nil {
		return err
	}
	return b.sendTaskDetails(ctx, chatID, id)
}

func (b *Bot) deleteAndRefresh(ctx context.Context, chatID int64, id string) error {
	ok, err := b.taskSvc.DeleteTask(ctx, id)
	if err != nil {
		return b.reportFailure(chatID, "delete task", err)
	}
	if !ok {
		return b.sendText(chatID, "Task not found or already deleted.")
	}

	b.logger.Info("task deleted", zap.String("id", id))

	if err := b.sendText(chatID, "🗑 Task deleted."); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID)
}

func (b *Bot) sendShare(ctx context.Context, chatID int64, id string) error {
	task, err := b.taskSvc.GetTask(ctx, id)
	if err != nil {
		return b.reportFailure(chatID, "get task", err)
	}
	if task == nil {
		return b.sendText(chatID, "Task not found or already deleted.")
	}

	// Plain text so it can be forwarded or copied as is.
	msg := tgbotapi.NewMessage(chatID, service.ShareText(*task))
	_, err = b.out.Send(msg)
	return err
}

func (b *Bot) sendEditMenu(ctx context.Context, chatID int64, id string) error {
	task, err := b.taskSvc.GetTask(ctx, id)
	if err != nil {
		return b.reportFailure(chatID, "get task", err)
	}
	if task == nil {
		return b.sendText(chatID, "Task not found or already deleted.")
	}
	text := fmt.Sprintf("✏️ What do you want to change in <b>%s</b>?", escape(task.Name))
	return b.sendWithReplyMarkup(chatID, text, editKeyboard(*task))
}

func (b *Bot) startEdit(ctx context.Context, chatID, userID int64, id, field string) error {
	if field == fieldStatus {
		task, err := b.taskSvc.GetTask(ctx, id)
		if err != nil {
			return b.reportFailure(chatID, "get task", err)
		}
		if task == nil {
			return b.sendText(chatID, "Task not found or already deleted.")
		}
		next := model.StatusCompleted
		if task.IsCompleted() {
			next = model.StatusInProgress
		}
		return b.updateAndRefresh(ctx, chatID, id, service.TaskEdit{Status: next})
	}

	prompt, ok := editPrompts[field]
	if !ok {
		return nil
	}
	b.clearConfirmation(userID)
	b.setConversation(userID, &conversationState{stage: stageEditValue, taskID: id, field: field})

	keyboard := cancelKeyboard()
	if field != fieldName {
		keyboard = clearKeyboard()
	}
	return b.sendWithReplyMarkup(chatID, prompt, keyboard)
}

func (b *Bot) applyEdit(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)
	value := &text
	if isClearInput(text) {
		empty := ""
		value = &empty
	}

	var edit service.TaskEdit
	switch state.field {
	case fieldName:
		if text == "" {
			b.setConversation(msg.From.ID, state)
			return b.sendWithReplyMarkup(msg.Chat.ID, "⚠️ Please enter a task name.", cancelKeyboard())
		}
		edit.Name = text
	case fieldDescription:
		edit.Description = value
	case fieldTimer:
		if err := service.ValidateTimer(*value); err != nil {
			b.setConversation(msg.From.ID, state)
			return b.sendWithReplyMarkup(msg.Chat.ID, "⚠️ Please enter a valid number for timer.", clearKeyboard())
		}
		edit.Timer = value
	case fieldPhoto:
		if image := imageFromMessage(msg); image != "" {
			value = &image
		} else if !isClearInput(text) {
			b.setConversation(msg.From.ID, state)
			return b.sendWithReplyMarkup(msg.Chat.ID, "Send a photo, an image link, or press Clear.", clearKeyboard())
		}
		edit.TaskImage = value
	default:
		return nil
	}

	return b.updateAndRefresh(ctx, msg.Chat.ID, state.taskID, edit)
}

func (b *Bot) updateAndRefresh(ctx context.Context, chatID int64, id string, edit service.TaskEdit) error {
	task, err := b.taskSvc.UpdateTask(ctx, id, edit)
	if err != nil {
		return b.reportFailure(chatID, "update task", err)
	}
	if task == nil {
		return b.sendText(chatID, "Task not found or already deleted.")
	}

	b.logger.Info("task updated", zap.String("id", task.ID))

	if err := b.sendText(chatID, "💾 Task updated."); err != nil {
		return err
	}
	return b.sendTaskDetails(ctx, chatID, task.ID)
}

// withTaskRef resolves the command argument (list position or id) and runs fn with the task id.
func (b *Bot) withTaskRef(ctx context.Context, msg *tgbotapi.Message, fn func(ctx context.Context, chatID int64, id string) error) error {
	ref := strings.TrimSpace(msg.CommandArguments())
	if ref == "" {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Tell me which task: /%s 2", msg.Command()))
	}

	id, err := b.resolveTaskRef(ctx, ref)
	if err != nil {
		return b.reportFailure(msg.Chat.ID, "resolve task", err)
	}
	if id == "" {
		return b.sendText(msg.Chat.ID, "Task not found or already deleted.")
	}
	return fn(ctx, msg.Chat.ID, id)
}

// resolveTaskRef maps a 1-based position in the current list, or a task id, to a task id.
// It returns "" when nothing matches.
func (b *Bot) resolveTaskRef(ctx context.Context, ref string) (string, error) {
	if pos, err := strconv.Atoi(ref); err == nil {
		tasks, err := b.taskSvc.ListTasks(ctx)
		if err != nil {
			return "", err
		}
		if pos < 1 || pos > len(tasks) {
			return "", nil
		}
		return tasks[pos-1].ID, nil
	}

	task, err := b.taskSvc.GetTask(ctx, ref)
	if err != nil || task == nil {
		return "", err
	}
	return task.ID, nil
}

// imageFromMessage returns the image reference carried by msg: the largest
// attached photo, or a link typed as text.
func imageFromMessage(msg *tgbotapi.Message) string {
	if len(msg.Photo) > 0 {
		largest := msg.Photo[0]
		for _, p := range msg.Photo[1:] {
			if p.Width*p.Height > largest.Width*largest.Height {
				largest = p
			}
		}
		return imageScheme + largest.FileID
	}
	text := strings.TrimSpace(msg.Text)
	// Text starting with "/" arrives as a command, so local paths need file://.
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") ||
		strings.HasPrefix(text, "file://") {
		return text
	}
	return ""
}

// photoFile turns a stored image reference into something Telegram can send.
// Local paths are not uploaded.
func photoFile(image *string) (tgbotapi.RequestFileData, bool) {
	if image == nil {
		return nil, false
	}
	switch ref := *image; {
	case strings.HasPrefix(ref, imageScheme):
		return tgbotapi.FileID(strings.TrimPrefix(ref, imageScheme)), true
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return tgbotapi.FileURL(ref), true
	default:
		return nil, false
	}
}
