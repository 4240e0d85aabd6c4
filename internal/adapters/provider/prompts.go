package provider

// Formatting rules sent with every completion so the client can render the
// reply as Markdown with LaTeX math.
const formatInstruction = "Please provide the response in Markdown format with LaTeX enclosed in single dollar signs for inline math and double dollar signs for block math. For example: - Inline math: $E = mc^2$ - Block math:$$E = mc^2$$"

const (
	singleImageInstruction = "Describe what you see in the image. Offer help to the student by responding like a very experienced teacher, but one with patience. " + formatInstruction
	imageBatchInstruction  = "Analyze the sentiment of the user in these images. Respond with a positive tone. " + formatInstruction
	textInstruction        = formatInstruction
)
