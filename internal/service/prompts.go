package service

import "fmt"

// systemPrompt frames every coach call the same way.
const systemPrompt = "You are a helpful fitness coach. Be safe, realistic, and beginner-friendly."

// planPromptTemplate enforces a strict output grammar so the plan can be
// reliably split into weeks afterwards.
const planPromptTemplate = `Create a structured 4-week fitness plan for %s.
User goal: %s
User BMI: %.2f

IMPORTANT FORMAT RULES (must follow EXACTLY):
- Use headings like 'WEEK 1:', 'WEEK 2:', 'WEEK 3:', 'WEEK 4:' (all caps, with colon).
- Each week heading must be on its own line, with no text before it on that line.
- Do NOT add any other headings before WEEK 1.
- Do NOT reorder the weeks.

Output MUST be EXACTLY in this structure:

WEEK 1:
- bullet points
Motivation: "short quote"

WEEK 2:
- bullet points
Motivation: "short quote"

WEEK 3:
- bullet points
Motivation: "short quote"

WEEK 4:
- bullet points
Motivation: "short quote"

Content rules:
- Keep it beginner-friendly and safe.
- Include both diet and exercise ideas each week.
- Include simple weekly target habits (like steps, sleep, water).
- Avoid extreme dieting or unsafe advice.`

// askPromptTemplate is the live Q&A prompt; tighter and more deterministic
// than plan generation.
const askPromptTemplate = `You are an AI fitness coach inside a BMI app.

User: %s
BMI: %.2f
Goal: %s
Current Week in Plan: Week %d

User question: %s

Answer clearly in short steps:
- Give safe beginner advice.
- If the user asks about workout: include sets/reps or duration.
- If the user asks about food: give simple meal suggestions.
- Add exactly 1 short motivational line at the end.`

func buildPlanPrompt(name string, bmi float64, goal string) string {
	return fmt.Sprintf(planPromptTemplate, name, goal, bmi)
}

func buildAskPrompt(name string, bmi float64, goal string, week int, question string) string {
	return fmt.Sprintf(askPromptTemplate, name, bmi, goal, week, question)
}
