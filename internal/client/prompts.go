package client

import (
	"fmt"
	"strings"
)

const negativeConstraints = `CRITICAL NEGATIVE CONSTRAINTS (STRICT ADHERENCE REQUIRED):
- Do NOT generate Hindu religious symbols.
- EXCLUDE: Om symbols, Saffron/Orange Flags (Bhagwa), Hindu Temple Arches, Idols of Hindu Deities, Trishuls, Tikka/Bindi.
- Keep the aesthetic strictly aligned with the script's specific context or completely Neutral/Cinematic.`

const styleImageInstruction = "STRICT ANALYSIS: Examine this image and identify: 1. Dominant color palette (specific shades). 2. Lighting techniques (e.g., chiaroscuro, bokeh, volumetric light). 3. Artistic medium (e.g., macro photography, digital oil painting, 3D render). 4. Mood and texture. Return 20 precise descriptive keywords for prompt engineering, ignoring subject matter."

const defaultThumbnailDirection = "Focus on the most impactful visuals. Add cinematic depth, vibrant highlights, and create a sense of intrigue. Professional 4k quality."

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func segmentSystemPrompt(style string) string {
	return fmt.Sprintf(`ACT AS: The "Visual Production Engine" - Director Mode.
TASK: Analyze the provided Voiceover Script.
CRITICAL SEGMENTATION RULE: Break script into 5-10s scenes.
STYLE CONTEXT: %s

RULES:
1. Break the script into meaningful visual units.
2. Provide a 'visual_hook' that grabs attention in the first 3 seconds.
3. Generate a highly detailed 'prompt' for an image model.
4. Calculate a 'viral_score' (1-100) based on trend potential.
5. Adhere to negative constraints: %s`, orDefault(style, "Default Cinematic"), negativeConstraints)
}

func refineSystemPrompt(instruction string) string {
	return fmt.Sprintf(`ACT AS: Expert Script Writer and Viral Content Strategist.
TASK: Refine the provided script based on specific user instructions.

GUIDELINES:
1. Maintain the core message but optimize for retention, impact, and flow.
2. Incorporate the user's specific feedback: "%s".
3. Ensure the tone is consistent and professional.
4. Output ONLY the refined script text.`, instruction)
}

func refineUserPrompt(script, instruction string) string {
	return fmt.Sprintf("Current Script: %q\n\nInstructions: %q", script, instruction)
}

func enhanceSystemPrompt(style string) string {
	return fmt.Sprintf(`ACT AS: Expert Visual Prompt Engineer for high-end AI Image Generators.
TASK: Rewrite the user's basic prompt into a professional, cinematic, and detailed visual masterpiece.

GUIDELINES:
1. Inject technical details: camera angles (low angle, close up), lighting (volumetric, rim lighting, golden hour), and texture (hyper-realistic, 8k, Unreal Engine 5).
2. Incorporate the Style Context: %s.
3. Keep it punchy but descriptive.
4. Output ONLY the enhanced prompt text, no preamble.`, orDefault(style, "Cinematic Photorealism"))
}

func enhanceUserPrompt(prompt string) string {
	return fmt.Sprintf("Enhance this prompt: %q", prompt)
}

func styleQueryPrompt(query string) string {
	return fmt.Sprintf("Describe the visual aesthetic of %q in 20 keywords covering lighting, medium, and colors.", query)
}

func imagePrompt(prompt string) string {
	return prompt + ". Cinematic, high fidelity, professional grade."
}

func thumbnailPrompt(count int, instruction string) string {
	return fmt.Sprintf(`ACT AS: Viral Marketing Visual Specialist.
TASK: Create a HIGH-CLICK-THROUGH-RATE YouTube Thumbnail.
BLEND: Incorporate and blend elements from the provided %d scenes into a single, cohesive, dramatic composition.
INSTRUCTIONS: %s`, count, orDefault(instruction, defaultThumbnailDirection))
}
