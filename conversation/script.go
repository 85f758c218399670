package conversation

import (
	"errors"
	"fmt"

	"github.com/ElevenAndOne/mia"
)

// Message builders for each narrative beat. Handlers enqueue the batch for
// their branch; the queue paces it out one draft at a time.

func platformName(p mia.Platform) string {
	switch p {
	case mia.PlatformGoogleAds:
		return "Google Ads"
	case mia.PlatformMeta:
		return "Meta"
	default:
		return string(p)
	}
}

func welcomeBatch(platform mia.Platform) []mia.ChatMessage {
	return []mia.ChatMessage{
		mia.AgentText("Hi! I'm Mia. I've been looking at your " + platformName(platform) + " account."),
		mia.AgentText("I found a few things worth talking through. Ready?"),
		mia.ChoiceSet("",
			mia.Choice{Label: "Let's go", Action: mia.ActionBegin, Weight: mia.WeightPrimary},
		),
	}
}

func spendBatch(facts mia.Facts) []mia.ChatMessage {
	return []mia.ChatMessage{
		mia.AgentText("Here's what your spend looked like over the period."),
		mia.RichCard(mia.Card{
			Title: platformName(facts.Platform) + " spend",
			Rows: []mia.CardRow{
				{Label: "Spend", Value: fmt.Sprintf("%.2f %s", facts.Spend, facts.Currency)},
				{Label: "Impressions", Value: fmt.Sprintf("%d", facts.Impressions)},
			},
		}),
		mia.ChoiceSet("Want to see how that converted into clicks?",
			mia.Choice{Label: "Show me", Action: mia.ActionShowClicks, Weight: mia.WeightPrimary},
			mia.Choice{Label: "Skip this part", Action: mia.ActionSkipClicks, Weight: mia.WeightSecondary},
		),
	}
}

func factFetchFailedBatch() []mia.ChatMessage {
	return []mia.ChatMessage{
		mia.AgentText("Hmm, I couldn't load your account numbers just now."),
		mia.ChoiceSet("",
			mia.Choice{Label: "Try again", Action: mia.ActionBegin, Weight: mia.WeightPrimary},
			mia.Choice{Label: "Skip to the insights", Action: mia.ActionStreamInsight, Weight: mia.WeightSecondary},
		),
	}
}

func clicksBatch(facts mia.Facts) []mia.ChatMessage {
	return []mia.ChatMessage{
		mia.RichCard(mia.Card{
			Title: "Clicks",
			Rows: []mia.CardRow{
				{Label: "Clicks", Value: fmt.Sprintf("%d", facts.Clicks)},
				{Label: "CTR", Value: fmt.Sprintf("%.2f%%", facts.CTR*100)},
			},
		}),
		insightPrompt(),
	}
}

func skipClicksBatch() []mia.ChatMessage {
	return []mia.ChatMessage{
		mia.AgentText("No problem, we'll leave the click numbers for another day."),
		insightPrompt(),
	}
}

func insightPrompt() mia.ChatMessage {
	return mia.ChoiceSet("I can walk you through the full story behind these numbers.",
		mia.Choice{Label: "Tell me the story", Action: mia.ActionStreamInsight, Weight: mia.WeightPrimary},
		mia.Choice{Label: "Wrap up", Action: mia.ActionFinish, Weight: mia.WeightSecondary},
	)
}

func insightDoneBatch() []mia.ChatMessage {
	return []mia.ChatMessage{
		mia.ChoiceSet("There's more where that came from if you connect your Meta account — I can read both together.",
			mia.Choice{Label: "Connect Meta", Action: mia.ActionConnectPlatform, Weight: mia.WeightPrimary},
			mia.Choice{Label: "Not now", Action: mia.ActionSkipConnect, Weight: mia.WeightSecondary},
		),
	}
}

func connectStartedBatch() []mia.ChatMessage {
	return []mia.ChatMessage{
		mia.AgentText("Opening the Meta connection flow — finish it in the window that appears."),
	}
}

func connectFailedBatch(err error) []mia.ChatMessage {
	text := "That connection didn't go through."
	if errors.Is(err, mia.ErrLinkCancelled) {
		text = "Looks like the connection window was closed before finishing."
	}
	return []mia.ChatMessage{
		mia.AgentText(text),
		mia.ChoiceSet("",
			mia.Choice{Label: "Try again", Action: mia.ActionRetryConnect, Weight: mia.WeightPrimary},
			mia.Choice{Label: "Skip for now", Action: mia.ActionSkipConnect, Weight: mia.WeightSecondary},
		),
	}
}

func connectedBatch() []mia.ChatMessage {
	return []mia.ChatMessage{
		mia.AgentText("Connected! Now I can read both accounts side by side."),
		mia.ChoiceSet("",
			mia.Choice{Label: "Read them together", Action: mia.ActionStreamCombined, Weight: mia.WeightPrimary},
			mia.Choice{Label: "Wrap up", Action: mia.ActionFinish, Weight: mia.WeightSecondary},
		),
	}
}

func combinedDoneBatch() []mia.ChatMessage {
	return []mia.ChatMessage{
		mia.AgentText("That's the combined picture."),
		mia.ChoiceSet("",
			mia.Choice{Label: "Wrap up", Action: mia.ActionFinish, Weight: mia.WeightPrimary},
		),
	}
}

func streamFailedBatch(combined bool) []mia.ChatMessage {
	retry := mia.ActionStreamInsight
	if combined {
		retry = mia.ActionStreamCombined
	}
	return []mia.ChatMessage{
		mia.AgentText("I lost the thread there — the insight feed cut out."),
		mia.ChoiceSet("",
			mia.Choice{Label: "Try again", Action: retry, Weight: mia.WeightPrimary},
			mia.Choice{Label: "Wrap up", Action: mia.ActionFinish, Weight: mia.WeightSecondary},
		),
	}
}

func skippedBatch() []mia.ChatMessage {
	return []mia.ChatMessage{
		mia.AgentText("All good — you can connect it any time. That's everything from me for today."),
	}
}

func goodbyeBatch() []mia.ChatMessage {
	return []mia.ChatMessage{
		mia.AgentText("Thanks for walking through it with me. See you next report!"),
	}
}
