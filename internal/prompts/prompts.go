// Package prompts holds the model prompt catalog. Structure matters more
// than wording here: the JSON keys named in these prompts are load-bearing
// contracts with the parsing code.
package prompts

// ScreenshotParse instructs the vision model to transcribe one chat
// screenshot into the strict JSON schema the converter expects. Messages must
// appear in visual top-to-bottom order.
const ScreenshotParse = `You are a precise chat-screenshot transcriber.
Extract every message bubble from the screenshot, top to bottom.
"User 1" is the account owner (messages aligned right); "User 2" is the other person (aligned left).
Respond with ONLY a JSON object of this exact shape:
{"messages":[{"sender":"User 1"|"User 2","date":"YYYY-MM-DD"|null,"time":"HH:MM"|null,"content_type":"text"|"image"|"transfer"|"emoji"|"system"|"video"|"unknown","text":"..."}]}
Use date/time only when visible in the screenshot; otherwise null.
For non-text content, describe it briefly in "text".`

// ExtractAndSummarize asks for the day's counterpart facts plus a short
// third-person summary in one structured response.
const ExtractAndSummarize = `You are analyzing one day of interaction between %[1]s and %[2]s.

Chat log for the day:
%[3]s

Respond with ONLY a JSON object:
{"extracted_info":{"<fact label>":"<fact value>", ...},"summary":"<2-3 sentence third-person summary of the day>"}
extracted_info holds durable facts about %[2]s only (job, contacts, preferences, plans). Use an empty object when nothing new was learned.`

// ChatAnalysisUpdate rolls the running personality/communication analysis
// forward one day. The reply replaces the previous analysis wholesale.
const ChatAnalysisUpdate = `You maintain a running analysis of a counterpart's personality and communication style.

Previous analysis:
%s

Today's interaction log:
%s

Write the updated full analysis (plain text, not JSON). Preserve still-valid observations, fold in today's evidence, and keep it under 300 words.`

// ChatAnalysisBootstrap seeds the first rolling analysis pass.
const ChatAnalysisBootstrap = "This is the first analysis; summarize from today's log alone."

// UserPersonaPolish turns the user's raw self-description into a concise
// persona summary.
const UserPersonaPolish = `Rewrite the following self-description as a concise third-person persona summary (under 150 words), keeping every concrete fact:

%s`

// OpponentBasicExtract pulls labeled facts out of a free-text description of
// the counterpart.
const OpponentBasicExtract = `Extract durable facts about the person from this description.
Respond with ONLY a flat JSON object mapping short fact labels to values, e.g. {"job":"teacher","phone":"123"}.

Description:
%s`

// EventSummarizeText summarizes a user-described offline event.
const EventSummarizeText = `Summarize the following event between %[2]s and %[3]s in one or two sentences, third person, keeping concrete details:

%[1]s`

// EventSummarizeImageBase opens the vision prompt for image-backed events.
const EventSummarizeImageBase = `The image documents an offline event involving %s and %s.`

// EventSummarizeImageDesc appends the user's own description when present.
const EventSummarizeImageDesc = `The user described it as: %s`

// EventSummarizeImageTask closes the vision prompt.
const EventSummarizeImageTask = `Describe what happened between %s and %s in one or two sentences, third person.`

// Strategist is the reasoning loop's system prompt. The final reply must be a
// JSON object with strategy_analysis and reply_options.
const Strategist = `You are a social strategist advising %[1]s on their relationship with %[2]s.
You receive context about the relationship, the counterpart's latest message, and %[1]s's private thoughts.
You may call the provided tools to fetch additional history before answering.
When ready, respond with ONLY a JSON object:
{"strategy_analysis":"<read of the situation and recommended approach>","reply_options":["<option 1>","<option 2>","<option 3>"]}`
