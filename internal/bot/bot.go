package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"
	"tasktracker/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageName
	stageDescription
	stageTimer
	stagePhoto
	stageEditValue
)

const (
	cbOpenPrefix   = "open:"
	cbDonePrefix   = "done:"
	cbReopenPrefix = "reopen:"
	cbEditPrefix   = "edit:"
	cbFieldPrefix  = "field:"
	cbSharePrefix  = "share:"
	cbDeletePrefix = "delete:"
)

const (
	btnSkip          = "⏭️ Skip"
	btnClear         = "🧹 Clear"
	btnConfirm       = "✅ Confirm"
	btnCancel        = "↩️ Cancel"
	btnCancelDialog  = "⏪ Stop input"
	menuLabelNewTask = "➕ New task"
	menuLabelTasks   = "📋 Tasks"
	menuLabelDigest  = "📊 Digest"
	menuLabelHelp    = "ℹ️ Help"
)

// imageScheme marks task images that live on Telegram's servers.
const imageScheme = "tg://file/"

const genericFailure = "Something went wrong, please try again."

type conversationState struct {
	stage  conversationStage
	input  service.TaskInput
	taskID string
	field  string
}

type confirmationAction int

const (
	actionComplete confirmationAction = iota
	actionDelete
)

type confirmationRequest struct {
	taskID string
	action confirmationAction
}

// sender is the part of the Telegram API the bot talks through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           *tgbotapi.BotAPI
	out           sender
	taskSvc       *service.TaskService
	digestSvc     *service.DigestService
	logger        *zap.Logger
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(token string, taskSvc *service.TaskService, digestSvc *service.DigestService, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	b := newBot(api, taskSvc, digestSvc, log)
	b.api = api
	b.logger.Info("bot authorized", zap.String("account", api.Self.UserName))
	return b, nil
}

func newBot(out sender, taskSvc *service.TaskService, digestSvc *service.DigestService, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		out:           out,
		taskSvc:       taskSvc,
		digestSvc:     digestSvc,
		logger:        log.Named("bot"),
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("bot has no telegram connection")
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.logger.Error("handle callback", zap.Error(err))
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.logger.Error("handle message", zap.Error(err))
			}
		}
	}

	return ctx.Err()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.Chat == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input stopped. Nothing was saved.")
	}

	if msg.IsCommand() {
		b.logger.Debug("command",
			zap.Int64("user", msg.From.ID),
			zap.String("command", msg.Command()),
			zap.String("args", msg.CommandArguments()),
		)
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(msg)
	case "newtask":
		return b.startNewTaskConversation(msg)
	case "tasks":
		return b.sendTaskList(ctx, msg.Chat.ID)
	case "task":
		return b.withTaskRef(ctx, msg, b.sendTaskDetails)
	case "done":
		return b.withTaskRef(ctx, msg, func(ctx context.Context, chatID int64, id string) error {
			return b.setStatusAndRefresh(ctx, chatID, id, model.StatusCompleted)
		})
	case "reopen":
		return b.withTaskRef(ctx, msg, func(ctx context.Context, chatID int64, id string) error {
			return b.setStatusAndRefresh(ctx, chatID, id, model.StatusInProgress)
		})
	case "share":
		return b.withTaskRef(ctx, msg, b.sendShare)
	case "delete":
		return b.withTaskRef(ctx, msg, func(ctx context.Context, chatID int64, id string) error {
			return b.askConfirmation(ctx, chatID, msg.From.ID, id, actionDelete)
		})
	case "digest":
		return b.SendDigest(ctx, msg.Chat.ID)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input stopped. Nothing was saved.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.sendTaskList(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelDigest):
		return true, b.SendDigest(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your task list.</b>\n\n%s", escape(name), commandList)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Commands</b>\n"+commandList)
}

const commandList = "• /newtask — add a task step by step\n" +
	"• /tasks — list tasks, newest first\n" +
	"• /task &lt;n|id&gt; — task details\n" +
	"• /done &lt;n|id&gt; — mark a task completed\n" +
	"• /reopen &lt;n|id&gt; — move a task back to in progress\n" +
	"• /share &lt;n|id&gt; — get a shareable text\n" +
	"• /delete &lt;n|id&gt; — delete a task\n" +
	"• /digest — summary of open tasks\n" +
	"• /cancel — stop the current input\n\n" +
	"&lt;n&gt; is the task's position in /tasks."

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if req.action == actionDelete {
			return b.deleteAndRefresh(ctx, msg.Chat.ID, req.taskID)
		}
		return b.setStatusAndRefresh(ctx, msg.Chat.ID, req.taskID, model.StatusCompleted)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		prompt := "Confirm or cancel completing the task."
		if req.action == actionDelete {
			prompt = "Confirm or cancel deleting the task."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
}

// SendDigest sends the open-task summary to chatID.
func (b *Bot) SendDigest(ctx context.Context, chatID int64) error {
	text, err := b.digestSvc.Summary(ctx, now())
	if err != nil {
		return b.reportFailure(chatID, "build digest", err)
	}
	return b.sendText(chatID, escape(text))
}

// reportFailure tells the user about err. Validation problems are shown as is,
// anything else becomes one generic notice and is logged.
func (b *Bot) reportFailure(chatID int64, op string, err error) error {
	var verr *repository.ValidationError
	if errors.As(err, &verr) {
		return b.sendText(chatID, "⚠️ "+escape(verr.Message))
	}
	b.logger.Error(op, zap.Error(err))
	return b.sendText(chatID, genericFailure)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	return b.sendText(chatID, "🔹 Main menu")
}

func (b *Bot) ack(cb *tgbotapi.CallbackQuery) {
	if _, err := b.out.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("callback ack", zap.Error(err))
	}
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func escape(s string) string {
	return html.EscapeString(s)
}
