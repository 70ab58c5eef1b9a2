package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/jusunglee/uzscript/internal/conversion"
	"github.com/jusunglee/uzscript/internal/metrics"
	"github.com/jusunglee/uzscript/internal/transliteration"
	"github.com/samber/lo"
)

const (
	embedFieldLimit = 1024
	embedColor      = 0x1EB53A

	feedbackGoodPrefix = "feedback_good"
	feedbackFixPrefix  = "feedback_fix"
	feedbackModal      = "feedback_modal"
	correctionInputID  = "correction_text"
)

type Config struct {
	GuildID string
	// SweepInterval controls how often idle rate-limit entries are dropped.
	SweepInterval time.Duration
}

type Bot struct {
	log     Logger
	session DiscordSession
	conv    Converter
	limiter *RateLimiter
	config  Config
}

func New(log Logger, session DiscordSession, conv Converter, limiter *RateLimiter, config Config) *Bot {
	if config.SweepInterval <= 0 {
		config.SweepInterval = 10 * time.Minute
	}
	return &Bot{
		log:     log,
		session: session,
		conv:    conv,
		limiter: limiter,
		config:  config,
	}
}

func (b *Bot) Run(ctx context.Context) error {
	b.session.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handleInteraction(ctx, i)
	})
	b.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.log.InfoContext(ctx, "connected to Discord", "username", r.User.Username)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening Discord connection: %w", err)
	}

	if err := b.registerCommands(ctx); err != nil {
		b.session.Close()
		return fmt.Errorf("registering commands: %w", err)
	}

	b.log.InfoContext(ctx, "bot is running, press Ctrl+C to stop")

	ticker := time.NewTicker(b.config.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.limiter.Sweep()
		case <-ctx.Done():
			b.log.InfoContext(ctx, "shutdown signal received")
			if err := b.session.Close(); err != nil {
				return fmt.Errorf("closing Discord connection: %w", err)
			}
			b.log.InfoContext(ctx, "shut down complete")
			return nil
		}
	}
}

func (b *Bot) registerCommands(ctx context.Context) error {
	guildID := b.config.GuildID
	if guildID != "" {
		b.log.InfoContext(ctx, "registering commands to guild", "guild_id", guildID)
		_, err := b.session.ApplicationCommandBulkOverwrite(b.session.GetUserID(), "", []*discordgo.ApplicationCommand{})
		if err != nil {
			b.log.WarnContext(ctx, "failed to clear global commands", "error", err)
		}
	} else {
		b.log.InfoContext(ctx, "registering commands globally (may take up to 1 hour to propagate)")
	}

	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.GetUserID(), guildID, commands)
	if err != nil {
		return fmt.Errorf("bulk overwrite commands: %w", err)
	}
	b.log.InfoContext(ctx, "registered commands", "count", len(commands))
	return nil
}

var directionChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "auto", Value: "auto"},
	{Name: "latin → cyrillic", Value: string(transliteration.LatinToCyrillic)},
	{Name: "cyrillic → latin", Value: string(transliteration.CyrillicToLatin)},
}

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "translit",
		Description: "Convert Uzbek text between Latin and Cyrillic",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "text",
				Description: "Text to convert",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "direction",
				Description: "Conversion direction (default: detect)",
				Choices:     directionChoices,
			},
		},
	},
	{
		Name:        "detect",
		Description: "Detect whether text is written in Latin or Cyrillic",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "text",
				Description: "Text to inspect",
				Required:    true,
			},
		},
	},
}

type handlerResult struct {
	Response *discordgo.InteractionResponse
	Err      error
}

func reply(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	}
}

func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

func (b *Bot) handleInteraction(parent context.Context, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	var (
		result handlerResult
		name   string
	)
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name = i.ApplicationCommandData().Name
		result = b.handleCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		name = i.MessageComponentData().CustomID
		result = b.handleComponent(ctx, i)
	case discordgo.InteractionModalSubmit:
		name = i.ModalSubmitData().CustomID
		result = b.handleModalSubmit(ctx, i)
	default:
		return
	}

	if result.Response != nil {
		if err := b.session.InteractionRespond(i.Interaction, result.Response); err != nil {
			b.log.ErrorContext(ctx, "failed to respond to interaction", "error", err, "interaction", name)
		}
	}

	if result.Err == nil {
		return
	}

	if _, ok := errors.AsType[*userError](result.Err); ok {
		b.log.WarnContext(ctx, "user error", "interaction", name, "error", result.Err, "channel_id", i.ChannelID)
	} else {
		b.log.ErrorContext(ctx, "interaction failed", "interaction", name, "error", result.Err, "channel_id", i.ChannelID)
	}
}

func (b *Bot) handleCommand(ctx context.Context, i *discordgo.InteractionCreate) handlerResult {
	userID := interactionUserID(i)
	if !b.limiter.Allow(userID) {
		metrics.RateLimitHits.WithLabelValues("discord").Inc()
		return handlerResult{
			Response: ephemeral("⏳ You're sending commands too quickly. Please wait a minute."),
			Err:      newUserError(fmt.Errorf("rate limited: %s", userID)),
		}
	}

	switch i.ApplicationCommandData().Name {
	case "translit":
		return b.handleTranslit(ctx, i)
	case "detect":
		return b.handleDetect(i)
	default:
		return handlerResult{}
	}
}

func (b *Bot) handleTranslit(ctx context.Context, i *discordgo.InteractionCreate) handlerResult {
	options := i.ApplicationCommandData().Options
	text := getOption(options, "text")

	dir, err := transliteration.ParseDirection(getOption(options, "direction"))
	if err != nil {
		return handlerResult{
			Response: ephemeral("❌ Unknown direction. Use auto, latin-to-cyrillic or cyrillic-to-latin."),
			Err:      newUserError(err),
		}
	}

	out, err := b.conv.Convert(ctx, conversion.Request{
		Text:      text,
		Direction: dir,
		Source:    conversion.SourceDiscord,
		Save:      true,
	})
	if err != nil {
		if conversion.IsUserError(err) {
			return handlerResult{
				Response: ephemeral("❌ " + capitalize(err.Error())),
				Err:      newUserError(err),
			}
		}
		return handlerResult{
			Response: ephemeral("❌ Failed to convert. Please try again later."),
			Err:      fmt.Errorf("converting text: %w", err),
		}
	}

	b.log.InfoContext(ctx, "converted text", "conversion_id", out.ID, "direction", out.Direction, "detected", out.Detected)

	return handlerResult{Response: &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{formatConversionEmbed(text, out)},
			Components: feedbackButtons(out.ID),
		},
	}}
}

func (b *Bot) handleDetect(i *discordgo.InteractionCreate) handlerResult {
	text := getOption(i.ApplicationCommandData().Options, "text")
	d := b.conv.Detect(text)

	return handlerResult{Response: reply(fmt.Sprintf(
		"Detected **%s** (Latin letters: %d, Cyrillic letters: %d)",
		capitalize(string(d.Script)), d.Latin, d.Cyrillic,
	))}
}

func (b *Bot) handleComponent(ctx context.Context, i *discordgo.InteractionCreate) handlerResult {
	action, conversionID := parseCustomID(i.MessageComponentData().CustomID)
	messageID := ""
	if i.Message != nil {
		messageID = i.Message.ID
	}

	switch action {
	case feedbackGoodPrefix:
		_, err := b.conv.SubmitFeedback(ctx, conversion.FeedbackRequest{
			ConversionID:     conversionID,
			DiscordMessageID: messageID,
			Text:             "👍",
			Source:           conversion.SourceDiscord,
		})
		if err != nil {
			return handlerResult{
				Response: ephemeral("❌ Couldn't record your feedback. Please try again later."),
				Err:      fmt.Errorf("storing positive feedback for message %s: %w", messageID, err),
			}
		}
		return handlerResult{Response: ephemeral("Thanks for the feedback!")}

	case feedbackFixPrefix:
		return handlerResult{Response: &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseModal,
			Data: &discordgo.InteractionResponseData{
				CustomID: fmt.Sprintf("%s:%d:%s", feedbackModal, conversionID, messageID),
				Title:    "Suggest a Correction",
				Components: []discordgo.MessageComponent{
					discordgo.ActionsRow{
						Components: []discordgo.MessageComponent{
							discordgo.TextInput{
								CustomID:    correctionInputID,
								Label:       "What should the result be?",
								Style:       discordgo.TextInputParagraph,
								Placeholder: "e.g., 'yo'l' should be 'йўл' not 'ё'л'",
								Required:    true,
								MaxLength:   conversion.MaxFeedbackBytes,
							},
						},
					},
				},
			},
		}}
	}

	return handlerResult{}
}

func (b *Bot) handleModalSubmit(ctx context.Context, i *discordgo.InteractionCreate) handlerResult {
	data := i.ModalSubmitData()

	parts := strings.SplitN(data.CustomID, ":", 3)
	if len(parts) != 3 || parts[0] != feedbackModal {
		return handlerResult{}
	}
	conversionID, _ := strconv.ParseInt(parts[1], 10, 64)
	messageID := parts[2]

	var correction string
	for _, row := range data.Components {
		if actionsRow, ok := row.(*discordgo.ActionsRow); ok {
			for _, comp := range actionsRow.Components {
				if input, ok := comp.(*discordgo.TextInput); ok && input.CustomID == correctionInputID {
					correction = input.Value
				}
			}
		}
	}

	_, err := b.conv.SubmitFeedback(ctx, conversion.FeedbackRequest{
		ConversionID:     conversionID,
		DiscordMessageID: messageID,
		Text:             correction,
		Source:           conversion.SourceDiscord,
	})
	if err != nil {
		if conversion.IsUserError(err) {
			return handlerResult{
				Response: ephemeral("❌ " + capitalize(err.Error())),
				Err:      newUserError(err),
			}
		}
		return handlerResult{
			Response: ephemeral("❌ Couldn't record your correction. Please try again later."),
			Err:      fmt.Errorf("storing correction for message %s: %w", messageID, err),
		}
	}

	return handlerResult{Response: ephemeral("Thanks! Your correction has been recorded.")}
}

type userError struct {
	Err error
}

func (e *userError) Error() string {
	return e.Err.Error()
}

func (e *userError) Unwrap() error {
	return e.Err
}

func newUserError(err error) *userError {
	return &userError{Err: err}
}

func getOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	opt, ok := lo.Find(options, func(o *discordgo.ApplicationCommandInteractionDataOption) bool {
		return o.Name == name
	})
	if !ok {
		return ""
	}
	return opt.StringValue()
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// parseCustomID splits "action:id". A missing or malformed id is zero.
func parseCustomID(customID string) (string, int64) {
	action, idStr, _ := strings.Cut(customID, ":")
	id, _ := strconv.ParseInt(idStr, 10, 64)
	return action, id
}

func feedbackButtons(conversionID int64) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Correct ✓",
					CustomID: fmt.Sprintf("%s:%d", feedbackGoodPrefix, conversionID),
					Style:    discordgo.SuccessButton,
				},
				discordgo.Button{
					Label:    "Suggest Fix",
					CustomID: fmt.Sprintf("%s:%d", feedbackFixPrefix, conversionID),
					Style:    discordgo.SecondaryButton,
				},
			},
		},
	}
}

func formatConversionEmbed(original string, out conversion.Outcome) *discordgo.MessageEmbed {
	direction := string(out.Direction)
	if out.Detected {
		direction += " (detected)"
	}

	embed := &discordgo.MessageEmbed{
		Title: "Transliteration",
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Original", Value: truncate(original, embedFieldLimit)},
			{Name: "Result", Value: truncate(out.Text, embedFieldLimit)},
			{Name: "Direction", Value: direction, Inline: true},
		},
	}
	if out.ID != 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Conversion #%d", out.ID)}
	}
	return embed
}

// truncate shortens s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	const ellipsis = "…"
	cut := limit - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return strings.ToUpper(string(r)) + s[size:]
}
